package app

import (
	"context"

	"arbiter/domain/block"
	"arbiter/domain/core"
	"arbiter/domain/scoring"
	"arbiter/internal"
	"arbiter/internal/errors"
	"arbiter/internal/evaluation"
	"arbiter/ports"
)

// AnalysisService runs the pipeline end to end: structural pass, optional
// judge pass through an executor, and persistence of the result
type AnalysisService struct {
	analyzer *Analyzer
	executor *evaluation.Executor
	repo     ports.TensorRepository
	logger   *internal.Logger
}

// NewAnalysisService wires the pipeline. executor and repo may be nil: without
// an executor only structural analysis is available, without a repository
// results are not stored.
func NewAnalysisService(analyzer *Analyzer, executor *evaluation.Executor, repo ports.TensorRepository, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{
		analyzer: analyzer,
		executor: executor,
		repo:     repo,
		logger:   logger.With("AnalysisService"),
	}
}

// Analyzer returns the underlying pipeline
func (s *AnalysisService) Analyzer() *Analyzer {
	return s.analyzer
}

// JudgeAvailable reports whether full runs can call a judge
func (s *AnalysisService) JudgeAvailable() bool {
	return s.executor != nil
}

// RunStructural analyzes with structural rules only and stores the result
func (s *AnalysisService) RunStructural(ctx context.Context, blocks []block.Block) (*AnalysisResult, error) {
	result, err := s.analyzer.AnalyzeStructural(blocks)
	if err != nil {
		return nil, err
	}
	return result, s.save(ctx, result)
}

// RunFull exports the judge work, runs it through the executor and merges
// the surviving scores with the structural pass
func (s *AnalysisService) RunFull(ctx context.Context, blocks []block.Block) (*AnalysisResult, evaluation.BatchReport, error) {
	if s.executor == nil {
		return nil, evaluation.BatchReport{}, errors.ConfigInvalid("no judge configured")
	}

	pending, err := s.analyzer.PendingLLMWork(blocks)
	if err != nil {
		return nil, evaluation.BatchReport{}, err
	}

	scores, report := s.executor.Evaluate(ctx, pending)
	if report.Dropped > 0 {
		s.logger.Warn("%d of %d judge evaluation(s) dropped", report.Dropped, report.Submitted)
	}

	result, err := s.analyzer.AnalyzeWithScores(blocks, scores)
	if err != nil {
		return nil, report, err
	}
	return result, report, s.save(ctx, result)
}

// RunWithScores merges judge scores obtained elsewhere with the structural
// pass and stores the result
func (s *AnalysisService) RunWithScores(ctx context.Context, blocks []block.Block, scores []scoring.BlockScore) (*AnalysisResult, error) {
	result, err := s.analyzer.AnalyzeWithScores(blocks, scores)
	if err != nil {
		return nil, err
	}
	return result, s.save(ctx, result)
}

// Get loads a stored run
func (s *AnalysisService) Get(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	if s.repo == nil {
		return nil, core.NewNotFoundError("run", id.String())
	}
	return s.repo.Get(ctx, id)
}

// List returns stored run summaries, newest first
func (s *AnalysisService) List(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	if s.repo == nil {
		return []ports.RunSummary{}, nil
	}
	return s.repo.List(ctx, limit)
}

func (s *AnalysisService) save(ctx context.Context, result *AnalysisResult) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, RecordFor(result)); err != nil {
		return errors.Wrapf(err, "failed to store run %s", result.RunID)
	}
	s.logger.Info("stored run %s (%d entries, summary %.2f)", result.RunID, result.Tensor.Len(), result.Score)
	return nil
}

// RecordFor converts a result into its stored form
func RecordFor(result *AnalysisResult) *ports.RunRecord {
	return &ports.RunRecord{
		ID:           result.RunID,
		RuleSet:      result.RuleSet,
		RuleSetHash:  result.RuleSetHash,
		SummaryScore: result.Score,
		Tensor:       result.Tensor,
		CreatedAt:    result.CreatedAt,
	}
}
