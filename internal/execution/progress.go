package execution

import (
	"math"
	"sync/atomic"
)

// Reporter receives the overall progress fraction in [0,1]
type Reporter func(fraction float64)

// Progress tracks a run's completion fraction. A Progress covers a sub-range
// of its root; Set values are mapped into that range. The reported value
// never decreases.
type Progress struct {
	report Reporter
	root   *atomic.Uint64
	from   float64
	to     float64
}

// NewProgress creates a root progress; report may be nil
func NewProgress(report Reporter) *Progress {
	return &Progress{
		report: report,
		root:   new(atomic.Uint64),
		from:   0,
		to:     1,
	}
}

func clamp(f float64) float64 {
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Sub returns the progress covering [from, to] of this progress's range
func (p *Progress) Sub(from, to float64) *Progress {
	span := p.to - p.from
	return &Progress{
		report: p.report,
		root:   p.root,
		from:   p.from + span*clamp(from),
		to:     p.from + span*clamp(to),
	}
}

// Set records that a fraction of this range is complete
func (p *Progress) Set(fraction float64) {
	abs := p.from + (p.to-p.from)*clamp(fraction)
	for {
		old := p.root.Load()
		if math.Float64frombits(old) >= abs {
			return
		}
		if p.root.CompareAndSwap(old, math.Float64bits(abs)) {
			break
		}
	}
	if p.report != nil {
		p.report(abs)
	}
}

// Done marks this range as complete
func (p *Progress) Done() {
	p.Set(1)
}

// Value returns the overall fraction reached so far
func (p *Progress) Value() float64 {
	return math.Float64frombits(p.root.Load())
}

// Units counts completed work items against a known total
type Units struct {
	progress *Progress
	total    int64
	done     atomic.Int64
}

// Units creates a counter over this progress range
func (p *Progress) Units(total int) *Units {
	return &Units{progress: p, total: int64(total)}
}

// Add records n completed items
func (u *Units) Add(n int) {
	if u == nil || u.total <= 0 {
		return
	}
	done := u.done.Add(int64(n))
	u.progress.Set(float64(done) / float64(u.total))
}
