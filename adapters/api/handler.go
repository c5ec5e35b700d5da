package api

import (
	"net/http"
	"strconv"

	"arbiter/app"
	"arbiter/domain/block"
	"arbiter/domain/core"
	"arbiter/domain/rules"
	"arbiter/domain/scoring"
	"arbiter/internal"
	"arbiter/internal/errors"
	"arbiter/internal/evaluation"

	"github.com/gin-gonic/gin"
)

// AnalyzeRequest carries a block corpus and, for merged runs, judge scores
// obtained outside the server
type AnalyzeRequest struct {
	Blocks []block.Block         `json:"blocks" binding:"required"`
	Scores []scoring.BlockScore `json:"scores,omitempty"`
}

// PendingResponse lists the judge evaluations a corpus needs
type PendingResponse struct {
	Count   int                         `json:"count"`
	Stats   rules.PairStats             `json:"stats"`
	Pending []scoring.PendingEvaluation `json:"pending"`
}

// RulesResponse describes the compiled rule set the server runs with
type RulesResponse struct {
	Name  string                 `json:"name"`
	Hash  core.RuleSetHash       `json:"hash"`
	Rules []rules.EvaluationRule `json:"rules"`
}

// EvaluateResponse is a full run together with its judge batch report
type EvaluateResponse struct {
	*app.AnalysisResult
	Judge evaluation.BatchReport `json:"judge"`
}

// AnalysisHandler serves the analysis pipeline over JSON
type AnalysisHandler struct {
	service *app.AnalysisService
	logger  *internal.Logger
}

// NewAnalysisHandler creates a handler over service
func NewAnalysisHandler(service *app.AnalysisService, logger *internal.Logger) *AnalysisHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisHandler{service: service, logger: logger.With("API")}
}

// HandleStructural runs structural rules only
func (h *AnalysisHandler) HandleStructural() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AnalyzeRequest
		if !h.bind(c, &req) {
			return
		}
		result, err := h.service.RunStructural(c.Request.Context(), req.Blocks)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// HandlePending exports the judge prompts for a corpus
func (h *AnalysisHandler) HandlePending() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AnalyzeRequest
		if !h.bind(c, &req) {
			return
		}
		analyzer := h.service.Analyzer()
		pending, err := analyzer.PendingLLMWork(req.Blocks)
		if err != nil {
			h.fail(c, err)
			return
		}
		compiled := analyzer.RuleSet()
		c.JSON(http.StatusOK, PendingResponse{
			Count:   len(pending),
			Stats:   compiled.PairStats(req.Blocks, compiled.ApplicablePairs(req.Blocks)),
			Pending: nonNil(pending),
		})
	}
}

// HandleAnalyze merges caller-supplied judge scores with the structural pass
func (h *AnalysisHandler) HandleAnalyze() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AnalyzeRequest
		if !h.bind(c, &req) {
			return
		}
		result, err := h.service.RunWithScores(c.Request.Context(), req.Blocks, req.Scores)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// HandleEvaluate runs a full analysis through the configured judge
func (h *AnalysisHandler) HandleEvaluate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AnalyzeRequest
		if !h.bind(c, &req) {
			return
		}
		result, report, err := h.service.RunFull(c.Request.Context(), req.Blocks)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, EvaluateResponse{AnalysisResult: result, Judge: report})
	}
}

// HandleGetRun returns a stored run
func (h *AnalysisHandler) HandleGetRun() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := core.ParseRunID(c.Param("id"))
		if err != nil {
			h.fail(c, errors.InvalidInput(err.Error()))
			return
		}
		run, err := h.service.Get(c.Request.Context(), id)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

// HandleListRuns lists stored runs, newest first
func (h *AnalysisHandler) HandleListRuns() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit < 0 {
			h.fail(c, errors.InvalidInput("limit must be a non-negative integer"))
			return
		}
		runs, err := h.service.List(c.Request.Context(), limit)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs})
	}
}

// HandleRules describes the active rule set
func (h *AnalysisHandler) HandleRules() gin.HandlerFunc {
	return func(c *gin.Context) {
		compiled := h.service.Analyzer().RuleSet()
		c.JSON(http.StatusOK, RulesResponse{
			Name:  compiled.Name(),
			Hash:  compiled.Hash(),
			Rules: compiled.Rules(),
		})
	}
}

// HandleHealth reports liveness and whether a judge is configured
func (h *AnalysisHandler) HandleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"judge":    h.service.JudgeAvailable(),
			"rule_set": h.service.Analyzer().RuleSet().Name(),
		})
	}
}

func (h *AnalysisHandler) bind(c *gin.Context, req *AnalyzeRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Debug("invalid request body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
			"code":  errors.CodeInvalidInput,
		})
		return false
	}
	return true
}

func (h *AnalysisHandler) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		h.logger.Debug("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

func nonNil(p []scoring.PendingEvaluation) []scoring.PendingEvaluation {
	if p == nil {
		return []scoring.PendingEvaluation{}
	}
	return p
}
