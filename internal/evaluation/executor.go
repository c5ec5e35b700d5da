package evaluation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"arbiter/domain/block"
	"arbiter/domain/rules"
	"arbiter/domain/scoring"
	"arbiter/internal"
	"arbiter/ports"
)

const defaultRetryBase = 500 * time.Millisecond

// Options tunes the executor
type Options struct {
	MaxConcurrent int           // in-flight judge calls, at least 1
	MaxRetries    int           // extra attempts per triple after a failure
	RetryBase     time.Duration // Fibonacci backoff base
	CallTimeout   time.Duration // per attempt, 0 = none
	RateLimit     float64       // calls per second, 0 = unlimited

	Metrics *Metrics
	Logger  *internal.Logger
}

// DefaultOptions returns 5 concurrent calls, 2 retries, 500ms backoff base
func DefaultOptions() Options {
	return Options{
		MaxConcurrent: 5,
		MaxRetries:    2,
		RetryBase:     defaultRetryBase,
	}
}

// BatchReport counts what happened to a batch
type BatchReport struct {
	Submitted int `json:"submitted"`
	Scored    int `json:"scored"`
	Dropped   int `json:"dropped"`
}

// Executor fans judge evaluations out under a concurrency cap.
// A failed call drops only its own triple; the batch always completes.
type Executor struct {
	judge   ports.Judge
	opts    Options
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	logger  *internal.Logger
}

// NewExecutor creates an executor over judge
func NewExecutor(judge ports.Judge, opts Options) *Executor {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = defaultRetryBase
	}
	logger := opts.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}

	e := &Executor{
		judge:  judge,
		opts:   opts,
		sem:    semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		logger: logger.With("Evaluator"),
	}
	if opts.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return e
}

// EvaluateJudgeRules evaluates every judge triple the pre-filter selects
func (e *Executor) EvaluateJudgeRules(ctx context.Context, blocks []block.Block, compiled *rules.CompiledRuleSet) ([]scoring.BlockScore, BatchReport) {
	return e.Evaluate(ctx, scoring.PendingEvaluations(blocks, compiled))
}

// Evaluate runs the pending evaluations concurrently and returns the scores
// of the calls that succeeded, in submission order. Cancelling ctx stops new
// calls from starting; everything not scored is counted as dropped.
func (e *Executor) Evaluate(ctx context.Context, pending []scoring.PendingEvaluation) ([]scoring.BlockScore, BatchReport) {
	report := BatchReport{Submitted: len(pending)}
	if len(pending) == 0 {
		return []scoring.BlockScore{}, report
	}

	start := time.Now()
	results := make([]*scoring.BlockScore, len(pending))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for i, p := range pending {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			e.logger.Warn("batch cancelled after %d of %d call(s) started: %v", i, len(pending), err)
			break
		}

		wg.Add(1)
		go func(index int, p scoring.PendingEvaluation) {
			defer wg.Done()
			defer e.sem.Release(1)

			score, err := e.evaluateOne(ctx, p)
			if err != nil {
				e.logger.Warn("dropped %s <-> %s [%s]: %v", p.BlockA.ID, p.BlockB.ID, p.Rule.Name, err)
				return
			}

			mu.Lock()
			results[index] = &score
			mu.Unlock()
		}(i, p)
	}
	wg.Wait()

	scores := make([]scoring.BlockScore, 0, len(pending))
	for _, s := range results {
		if s != nil {
			scores = append(scores, *s)
		}
	}
	report.Scored = len(scores)
	report.Dropped = report.Submitted - report.Scored

	e.logger.Info("judged %d/%d triple(s) in %v (%d dropped)",
		report.Scored, report.Submitted, time.Since(start).Round(time.Millisecond), report.Dropped)
	return scores, report
}

// EvaluateStrict makes one judge call without retries and reports an
// unreadable reply as core.ErrUnparseableJudgeResponse
func (e *Executor) EvaluateStrict(ctx context.Context, p scoring.PendingEvaluation) (scoring.BlockScore, error) {
	start := time.Now()
	raw, err := e.call(ctx, p.Prompt)
	if err != nil {
		e.opts.Metrics.observe(OutcomeFailed, time.Since(start))
		return scoring.BlockScore{}, err
	}

	score, err := scoring.ParseJudgeResponseStrict(raw, p.BlockA, p.BlockB, p.Rule)
	if err != nil {
		e.opts.Metrics.observe(OutcomeFailed, time.Since(start))
		return scoring.BlockScore{}, err
	}
	e.opts.Metrics.observe(OutcomeSuccess, time.Since(start))
	return score, nil
}

func (e *Executor) evaluateOne(ctx context.Context, p scoring.PendingEvaluation) (scoring.BlockScore, error) {
	start := time.Now()
	var raw string

	backoff := retry.WithMaxRetries(uint64(e.opts.MaxRetries), retry.NewFibonacci(e.opts.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := e.call(ctx, p.Prompt)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			e.logger.Debug("judge call for %s failed, may retry: %v", p.Key(), err)
			return retry.RetryableError(err)
		}
		raw = out
		return nil
	})
	if err != nil {
		e.opts.Metrics.observe(OutcomeFailed, time.Since(start))
		return scoring.BlockScore{}, err
	}

	e.opts.Metrics.observe(OutcomeSuccess, time.Since(start))
	return scoring.ParseJudgeResponse(raw, p.BlockA, p.BlockB, p.Rule), nil
}

// call performs a single judge request under the rate limit and per-call timeout
func (e *Executor) call(ctx context.Context, prompt string) (raw string, err error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	if e.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.CallTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("judge panicked: %v", r)
		}
	}()

	return e.judge.Complete(ctx, prompt)
}
