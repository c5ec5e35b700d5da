package block

import (
	"fmt"
	"strings"

	"arbiter/domain/core"
)

// Validate checks the fields the engine relies on.
// A malformed block is a programmer error on the decomposer side and is
// rejected here rather than tolerated during scoring.
func (b Block) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return core.NewInvalidBlockError("", "id is required")
	}
	if !b.Tier.Valid() {
		return core.NewInvalidBlockError(b.ID, fmt.Sprintf("unknown tier %q", b.Tier))
	}
	if !b.Category.Valid() {
		return core.NewInvalidBlockError(b.ID, fmt.Sprintf("unknown category %q", b.Category))
	}
	if !b.Modality.Valid() {
		return core.NewInvalidBlockError(b.ID, fmt.Sprintf("unknown modality %q", b.Modality))
	}
	if b.LineStart != nil && b.LineEnd != nil && *b.LineEnd < *b.LineStart {
		return core.NewInvalidBlockError(b.ID, fmt.Sprintf("line range %d-%d is inverted", *b.LineStart, *b.LineEnd))
	}
	return nil
}

// ValidateCorpus validates every block and enforces id uniqueness
func ValidateCorpus(blocks []Block) error {
	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		if err := b.Validate(); err != nil {
			return err
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("%w: %q", core.ErrDuplicateBlock, b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	return nil
}
