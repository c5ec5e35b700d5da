package app

import (
	"fmt"
	"time"

	"arbiter/domain/block"
	"arbiter/domain/core"
	"arbiter/domain/rules"
	"arbiter/domain/scoring"
	"arbiter/domain/tensor"
	"arbiter/internal"
	"arbiter/internal/errors"
)

// AnalysisResult is one assembled run over a block corpus
type AnalysisResult struct {
	RunID       core.RunID                 `json:"run_id"`
	RuleSet     string                     `json:"rule_set"`
	RuleSetHash core.RuleSetHash           `json:"rule_set_hash"`
	Blocks      []block.Block              `json:"blocks"`
	Tensor      *tensor.InterferenceTensor `json:"tensor"`
	Score       float64                    `json:"summary_score"`
	Stats       tensor.ScoreStats          `json:"stats"`
	Summary     string                     `json:"summary"`
	CreatedAt   time.Time                  `json:"created_at"`
}

// Analyzer is the offline analysis pipeline. It never calls a judge:
// judge work is exported through PendingLLMWork and fed back through
// AnalyzeWithScores.
type Analyzer struct {
	compiled  *rules.CompiledRuleSet
	threshold float64
	logger    *internal.Logger
	now       func() time.Time
}

// AnalyzerOption configures an Analyzer
type AnalyzerOption func(*Analyzer)

// WithThreshold sets the exclusive score threshold for tensor entries
func WithThreshold(t float64) AnalyzerOption {
	return func(a *Analyzer) { a.threshold = t }
}

// WithLogger sets the logger
func WithLogger(l *internal.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer creates a pipeline over a compiled rule set
func NewAnalyzer(compiled *rules.CompiledRuleSet, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		compiled: compiled,
		logger:   internal.DefaultLogger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("Analyzer")
	return a
}

// RuleSet returns the compiled rule set the analyzer runs
func (a *Analyzer) RuleSet() *rules.CompiledRuleSet {
	return a.compiled
}

// AnalyzeStructural runs only the structural rules
func (a *Analyzer) AnalyzeStructural(blocks []block.Block) (*AnalysisResult, error) {
	if err := block.ValidateCorpus(blocks); err != nil {
		return nil, errors.Wrap(err, "invalid block corpus")
	}

	scores := scoring.EvaluateAllStructural(blocks, a.compiled)
	a.logger.Debug("structural pass over %d block(s) produced %d score(s)", len(blocks), len(scores))
	return a.assemble(blocks, scores), nil
}

// PendingLLMWork returns the judge evaluations the caller has to run
func (a *Analyzer) PendingLLMWork(blocks []block.Block) ([]scoring.PendingEvaluation, error) {
	if err := block.ValidateCorpus(blocks); err != nil {
		return nil, errors.Wrap(err, "invalid block corpus")
	}

	pending := scoring.PendingEvaluations(blocks, a.compiled)
	stats := a.compiled.PairStats(blocks, a.compiled.ApplicablePairs(blocks))
	a.logger.Info("%d judge evaluation(s) pending (%d possible, %.1f%% after pre-filter)",
		len(pending), stats.JudgeNaiveMax, stats.JudgeReduction()*100)
	return pending, nil
}

// AnalyzeWithScores re-runs the structural pass and merges it with judge
// scores obtained elsewhere into one tensor
func (a *Analyzer) AnalyzeWithScores(blocks []block.Block, judgeScores []scoring.BlockScore) (*AnalysisResult, error) {
	if err := block.ValidateCorpus(blocks); err != nil {
		return nil, errors.Wrap(err, "invalid block corpus")
	}
	if err := a.checkScores(blocks, judgeScores); err != nil {
		return nil, err
	}

	structural := scoring.EvaluateAllStructural(blocks, a.compiled)
	merged := mergeScores(structural, judgeScores)

	a.logger.Debug("merging %d structural and %d judge score(s)", len(structural), len(judgeScores))
	return a.assemble(blocks, merged), nil
}

// cellKey identifies one unordered (pair, rule) cell of the tensor
type cellKey struct {
	lo, hi, rule string
}

func keyOf(s scoring.BlockScore) cellKey {
	if s.BlockB < s.BlockA {
		return cellKey{lo: s.BlockB, hi: s.BlockA, rule: s.Rule}
	}
	return cellKey{lo: s.BlockA, hi: s.BlockB, rule: s.Rule}
}

// mergeScores keeps one score per cell. A judge score replaces a structural
// score for the same cell in place.
func mergeScores(structural, judged []scoring.BlockScore) []scoring.BlockScore {
	merged := make([]scoring.BlockScore, 0, len(structural)+len(judged))
	slot := make(map[cellKey]int, len(structural)+len(judged))
	for _, group := range [][]scoring.BlockScore{structural, judged} {
		for _, s := range group {
			k := keyOf(s)
			if i, ok := slot[k]; ok {
				merged[i] = s
				continue
			}
			slot[k] = len(merged)
			merged = append(merged, s)
		}
	}
	return merged
}

// checkScores rejects judge scores that reference blocks or rules outside
// the run, self-pairs, and a second score for an already scored cell
func (a *Analyzer) checkScores(blocks []block.Block, scores []scoring.BlockScore) error {
	known := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		known[b.ID] = struct{}{}
	}
	seen := make(map[cellKey]int, len(scores))
	for i, s := range scores {
		if s.BlockA == s.BlockB {
			return errors.InvalidInput(fmt.Sprintf("judge score %d pairs block %q with itself", i, s.BlockA))
		}
		if j, dup := seen[keyOf(s)]; dup {
			return errors.InvalidInput(fmt.Sprintf("judge score %d duplicates score %d for %s/%s [%s]", i, j, s.BlockA, s.BlockB, s.Rule))
		}
		seen[keyOf(s)] = i
		if _, ok := known[s.BlockA]; !ok {
			return errors.InvalidInput(fmt.Sprintf("judge score %d references unknown block %q", i, s.BlockA))
		}
		if _, ok := known[s.BlockB]; !ok {
			return errors.InvalidInput(fmt.Sprintf("judge score %d references unknown block %q", i, s.BlockB))
		}
		if _, ok := a.compiled.Rule(s.Rule); !ok {
			return errors.InvalidInput(fmt.Sprintf("judge score %d references unknown rule %q", i, s.Rule))
		}
		if s.Score < 0 || s.Score > 1 {
			return errors.InvalidInput(fmt.Sprintf("judge score %d is %v, outside [0,1]", i, s.Score))
		}
	}
	return nil
}

func (a *Analyzer) assemble(blocks []block.Block, scores []scoring.BlockScore) *AnalysisResult {
	t := scoring.AssembleTensor(blocks, a.compiled, scores, a.threshold)
	return &AnalysisResult{
		RunID:       core.NewRunID(),
		RuleSet:     a.compiled.Name(),
		RuleSetHash: a.compiled.Hash(),
		Blocks:      blocks,
		Tensor:      t,
		Score:       t.SummaryScore(),
		Stats:       t.Stats(),
		Summary:     t.SummaryReport(),
		CreatedAt:   a.now().UTC(),
	}
}
