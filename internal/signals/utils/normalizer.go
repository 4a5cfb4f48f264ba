package utils

// Normalizer maps raw metric values onto [0, 1]
type Normalizer struct{}

// NewNormalizer creates a new normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize scales value linearly between min and max.
// Values at or below min return 0, values at or above max return 1.
func (n *Normalizer) Normalize(value, min, max float64) float64 {
	if value <= min {
		return 0.0
	}
	if value >= max {
		return 1.0
	}
	return (value - min) / (max - min)
}
