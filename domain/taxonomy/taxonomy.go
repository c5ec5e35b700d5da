package taxonomy

// Severity ranks how damaging a detected interference is
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	switch s {
	case SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

// Severities lists severities from most to least severe
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityMajor, SeverityMinor}
}

// InterferenceType is how two blocks interfere with each other
type InterferenceType string

const (
	DirectContradiction InterferenceType = "direct-contradiction"
	ScopeOverlap        InterferenceType = "scope-overlap"
	ImplicitDependency  InterferenceType = "implicit-dependency"
	OrderingSensitivity InterferenceType = "ordering-sensitivity"
	PriorityAmbiguity   InterferenceType = "priority-ambiguity"
)

// Valid reports whether t is part of the interference taxonomy
func (t InterferenceType) Valid() bool {
	switch t {
	case DirectContradiction, ScopeOverlap, ImplicitDependency, OrderingSensitivity, PriorityAmbiguity:
		return true
	}
	return false
}
