package enums

import "fmt"

// AssignmentMode controls how a prescription order is routed to a pharmacy.
type AssignmentMode string

const (
	AssignmentModeAuto   AssignmentMode = "auto"
	AssignmentModeManual AssignmentMode = "manual"
)

var validAssignmentModes = []AssignmentMode{
	AssignmentModeAuto,
	AssignmentModeManual,
}

// String implements fmt.Stringer.
func (a AssignmentMode) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssignmentMode.
func (a AssignmentMode) IsValid() bool {
	for _, candidate := range validAssignmentModes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAssignmentMode converts raw input into an AssignmentMode.
func ParseAssignmentMode(value string) (AssignmentMode, error) {
	for _, candidate := range validAssignmentModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment mode %q", value)
}
