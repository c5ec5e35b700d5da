package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, for log lines and reports
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// RuleSetHash fingerprints a compiled rule set
type RuleSetHash Hash

func NewRuleSetHash(data []byte) RuleSetHash { return RuleSetHash(NewHash(data)) }

func (h RuleSetHash) String() string { return Hash(h).String() }
func (h RuleSetHash) Short() string  { return Hash(h).Short() }
