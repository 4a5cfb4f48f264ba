package utils

import (
	"regexp"
	"strings"
)

// AccessorDetector identifies getter/setter methods
type AccessorDetector struct {
	getterPattern *regexp.Regexp
	setterPattern *regexp.Regexp
	boolPattern   *regexp.Regexp
}

// NewAccessorDetector creates a new accessor detector
func NewAccessorDetector() *AccessorDetector {
	return &AccessorDetector{
		getterPattern: regexp.MustCompile(`^(get|Get)[A-Z]`),
		setterPattern: regexp.MustCompile(`^(set|Set)[A-Z]`),
		boolPattern:   regexp.MustCompile(`^(is|Is|has|Has)[A-Z]`),
	}
}

// IsAccessor determines if a method name follows the getter/setter convention
func (d *AccessorDetector) IsAccessor(methodName string) bool {
	return d.getterPattern.MatchString(methodName) ||
		d.setterPattern.MatchString(methodName) ||
		d.boolPattern.MatchString(methodName)
}

// IsAccessorSignature checks a method identifier of the form Class.name(Params)
func (d *AccessorDetector) IsAccessorSignature(identifier string) bool {
	return d.IsAccessor(MethodName(identifier))
}

// MethodName extracts the simple name from Class.name(Params)
func MethodName(identifier string) string {
	name := identifier
	if idx := strings.Index(name, "("); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
