package block

// Tier is the authority level of a block (system > domain > application)
type Tier string

const (
	TierSystem      Tier = "system"
	TierDomain      Tier = "domain"
	TierApplication Tier = "application"
)

// Valid reports whether t is one of the known tiers
func (t Tier) Valid() bool {
	switch t {
	case TierSystem, TierDomain, TierApplication:
		return true
	}
	return false
}

// Category describes what kind of prompt block this is
type Category string

const (
	CategoryIdentity             Category = "identity"
	CategoryBehavioralConstraint Category = "behavioral-constraint"
	CategoryToolDefinition       Category = "tool-definition"
	CategoryWorkflow             Category = "workflow"
	CategoryPolicy               Category = "policy"
	CategoryContext              Category = "context"
	CategoryMeta                 Category = "meta"
)

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryIdentity, CategoryBehavioralConstraint, CategoryToolDefinition,
		CategoryWorkflow, CategoryPolicy, CategoryContext, CategoryMeta:
		return true
	}
	return false
}

// Modality is the deontic force of a block's directives
type Modality string

const (
	ModalityProhibition Modality = "prohibition"
	ModalityMandate     Modality = "mandate"
	ModalityPermission  Modality = "permission"
	ModalityDefinition  Modality = "definition"
	ModalityMixed       Modality = "mixed"
)

// Valid reports whether m is one of the five modalities
func (m Modality) Valid() bool {
	switch m {
	case ModalityProhibition, ModalityMandate, ModalityPermission, ModalityDefinition, ModalityMixed:
		return true
	}
	return false
}

// NoScope is the sentinel scope tag for blocks where no specific scope was detected
const NoScope = "general"

// Block is a classified, immutable unit of prompt text.
// Blocks are produced by an external decomposition step; nothing in this
// module mutates them.
type Block struct {
	ID        string   `json:"id" yaml:"id"`
	Source    string   `json:"source" yaml:"source"`
	Tier      Tier     `json:"tier" yaml:"tier"`
	Category  Category `json:"category" yaml:"category"`
	Text      string   `json:"text" yaml:"text"`
	Modality  Modality `json:"modality" yaml:"modality"`
	Scope     []string `json:"scope" yaml:"scope"`
	Exports   []string `json:"exports,omitempty" yaml:"exports,omitempty"`
	Imports   []string `json:"imports,omitempty" yaml:"imports,omitempty"`
	LineStart *int     `json:"line_start,omitempty" yaml:"line_start,omitempty"`
	LineEnd   *int     `json:"line_end,omitempty" yaml:"line_end,omitempty"`
}

// ScopesOverlap reports whether b shares any scope tag with other
func (b Block) ScopesOverlap(other Block) bool {
	if len(b.Scope) == 0 || len(other.Scope) == 0 {
		return false
	}
	tags := make(map[string]struct{}, len(b.Scope))
	for _, s := range b.Scope {
		tags[s] = struct{}{}
	}
	for _, s := range other.Scope {
		if _, ok := tags[s]; ok {
			return true
		}
	}
	return false
}

// IDs returns the block identifiers in input order
func IDs(blocks []Block) []string {
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}
	return ids
}
