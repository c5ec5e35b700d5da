package tensor

import (
	"encoding/json"
	"fmt"
)

// ToJSON serializes the tensor as an indented document
func (t *InterferenceTensor) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t.normalized(), "", "  ")
}

// FromJSON deserializes and validates a tensor document
func FromJSON(data []byte) (*InterferenceTensor, error) {
	var t InterferenceTensor
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode tensor: %w", err)
	}
	for _, e := range t.Entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("decode tensor: %w", err)
		}
	}
	return t.normalized(), nil
}

// normalized replaces nil axes with empty slices so documents never carry null
func (t *InterferenceTensor) normalized() *InterferenceTensor {
	out := *t
	if out.BlockIDs == nil {
		out.BlockIDs = []string{}
	}
	if out.RuleNames == nil {
		out.RuleNames = []string{}
	}
	if out.Entries == nil {
		out.Entries = []TensorEntry{}
	}
	return &out
}
