package rules

import (
	"encoding/json"

	"arbiter/domain/block"
	"arbiter/domain/taxonomy"

	"gopkg.in/yaml.v3"
)

// Template placeholders substituted with the two blocks' text
const (
	PlaceholderBlockA = "{block_a_text}"
	PlaceholderBlockB = "{block_b_text}"
)

// EvaluationRule is a named detector for one interference type.
// Structural rules (RequiresLLM=false) are scored in-process; judge rules
// carry a prompt template that is sent to an external judge.
type EvaluationRule struct {
	Name             string                    `json:"name" yaml:"name"`
	InterferenceType taxonomy.InterferenceType `json:"interference_type" yaml:"interference_type"`
	Description      string                    `json:"description,omitempty" yaml:"description,omitempty"`
	Severity         taxonomy.Severity         `json:"severity" yaml:"severity"`

	// Static pre-filter. An empty modality leaves that side unconstrained.
	RequiresScopeOverlap bool           `json:"requires_scope_overlap" yaml:"requires_scope_overlap"`
	ModalityA            block.Modality `json:"modality_a,omitempty" yaml:"modality_a,omitempty"`
	ModalityB            block.Modality `json:"modality_b,omitempty" yaml:"modality_b,omitempty"`

	RequiresLLM    bool   `json:"requires_llm" yaml:"requires_llm"`
	PromptTemplate string `json:"prompt_template,omitempty" yaml:"prompt_template,omitempty"`
}

// ruleDocument has the same fields as EvaluationRule without its decoding methods
type ruleDocument EvaluationRule

// UnmarshalJSON decodes a rule; requires_llm defaults to true when absent
func (r *EvaluationRule) UnmarshalJSON(data []byte) error {
	doc := ruleDocument{RequiresLLM: true}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*r = EvaluationRule(doc)
	return nil
}

// UnmarshalYAML decodes a rule; requires_llm defaults to true when absent
func (r *EvaluationRule) UnmarshalYAML(value *yaml.Node) error {
	doc := ruleDocument{RequiresLLM: true}
	if err := value.Decode(&doc); err != nil {
		return err
	}
	*r = EvaluationRule(doc)
	return nil
}

// AppliesTo reports whether the rule's pre-filter accepts the ordered pair (a, b)
func (r EvaluationRule) AppliesTo(a, b block.Block) bool {
	if r.RequiresScopeOverlap && !a.ScopesOverlap(b) {
		return false
	}
	if r.ModalityA != "" && a.Modality != r.ModalityA {
		return false
	}
	if r.ModalityB != "" && b.Modality != r.ModalityB {
		return false
	}
	return true
}

// StructuralCheck identifies the in-process predicate behind a structural rule
type StructuralCheck int

const (
	CheckNone StructuralCheck = iota
	CheckPriorityMarkerAmbiguity
	CheckVerbatimDuplication
)

func (c StructuralCheck) String() string {
	switch c {
	case CheckPriorityMarkerAmbiguity:
		return RulePriorityMarkerAmbiguity
	case CheckVerbatimDuplication:
		return RuleVerbatimDuplication
	default:
		return "none"
	}
}

// StructuralCheck resolves the predicate for a structural rule.
// Judge rules and structural rules without a built-in predicate resolve to CheckNone.
func (r EvaluationRule) StructuralCheck() StructuralCheck {
	if r.RequiresLLM {
		return CheckNone
	}
	switch r.Name {
	case RulePriorityMarkerAmbiguity:
		return CheckPriorityMarkerAmbiguity
	case RuleVerbatimDuplication:
		return CheckVerbatimDuplication
	default:
		return CheckNone
	}
}

// RuleSet is an unvalidated collection of rules. Compile it before use.
type RuleSet struct {
	Name  string           `json:"name" yaml:"name"`
	Rules []EvaluationRule `json:"rules" yaml:"rules"`
}
