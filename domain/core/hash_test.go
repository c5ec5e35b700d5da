package core

import "testing"

func TestNewHash_Deterministic(t *testing.T) {
	a := NewHash([]byte("rules"))
	b := NewHash([]byte("rules"))
	if a != b {
		t.Fatalf("expected identical hashes, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a.Short() != string(a[:12]) {
		t.Errorf("unexpected short form %s", a.Short())
	}
}

func TestIsConstructionError(t *testing.T) {
	if !IsConstructionError(NewInvalidBlockError("x", "empty text")) {
		t.Error("invalid block should be a construction error")
	}
	if !IsConstructionError(ErrDuplicateBlock) {
		t.Error("duplicate block should be a construction error")
	}
	if IsConstructionError(ErrUnparseableJudgeResponse) {
		t.Error("judge parse failure is not a construction error")
	}
}
