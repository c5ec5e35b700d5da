package fileio

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"arbiter/domain/core"
	"arbiter/domain/scoring"
	"arbiter/domain/tensor"
	"arbiter/ports"
)

// LoadScores reads judge scores from a JSON array or a {"scores": [...]} document
func LoadScores(path string) ([]scoring.BlockScore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	scores, err := DecodeScores(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return scores, nil
}

// DecodeScores parses a judge score document
func DecodeScores(data []byte) ([]scoring.BlockScore, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if doc.IsObject() {
		doc = doc.Get("scores")
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("expected a list of scores")
	}

	var scores []scoring.BlockScore
	if err := json.Unmarshal([]byte(doc.Raw), &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// runDocument is the analysis result layout written by the analyze and
// evaluate commands
type runDocument struct {
	RunID        core.RunID                 `json:"run_id"`
	RuleSet      string                     `json:"rule_set"`
	RuleSetHash  core.RuleSetHash           `json:"rule_set_hash"`
	SummaryScore float64                    `json:"summary_score"`
	Tensor       *tensor.InterferenceTensor `json:"tensor"`
	CreatedAt    time.Time                  `json:"created_at"`
}

// LoadRun reads either an analysis result document or a bare tensor document
func LoadRun(path string) (*ports.RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	run, err := DecodeRun(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return run, nil
}

// DecodeRun parses an analysis result, falling back to a bare tensor
func DecodeRun(data []byte) (*ports.RunRecord, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}

	raw := gjson.GetBytes(data, "tensor")
	if !raw.Exists() {
		t, err := tensor.FromJSON(data)
		if err != nil {
			return nil, err
		}
		return &ports.RunRecord{SummaryScore: t.SummaryScore(), Tensor: t}, nil
	}

	var doc runDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	t, err := tensor.FromJSON([]byte(raw.Raw))
	if err != nil {
		return nil, err
	}
	return &ports.RunRecord{
		ID:           doc.RunID,
		RuleSet:      doc.RuleSet,
		RuleSetHash:  doc.RuleSetHash,
		SummaryScore: t.SummaryScore(),
		Tensor:       t,
		CreatedAt:    doc.CreatedAt,
	}, nil
}
