package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clipforge/engine/internal/diagnostics"
	"github.com/clipforge/engine/internal/resilience"
	"github.com/clipforge/engine/internal/spill"
	"github.com/clipforge/engine/pkg/clipmodel"
)

// Engine drives the Scoring Engine protocol (§4.4) over an already
// pre-filtered candidate list: batch, enforce inter-request delay, retry with cooldown-aware backoff, extract
// JSON, assign fallback segments for unmatched results, and spill partial
// state when a cooldown hint exceeds the configured threshold.
type Engine struct {
	// Scorers is the local/remote failover group. The primary entry is
	// tried first each batch; three consecutive failures open its circuit
	// breaker and route subsequent batches to the next entry (§4.4
	// "Circuit breaker").
	Scorers *resilience.FallbackGroup[Scorer]

	SpillWriter spill.Writer
	Reporter    diagnostics.Reporter

	// Concurrency bounds how many batches may be in flight at once.
	// Default 1 (strictly sequential, satisfying the §5 ordering
	// guarantee trivially). Raising it requires no protocol change: the
	// errgroup still drains all in-flight batches before a spill is
	// written, and the final list is re-sorted by score regardless of
	// dispatch order.
	Concurrency int

	// sleep and randFloat are overridable for deterministic tests.
	sleep     func(context.Context, time.Duration) error
	randFloat func() float64
	now       func() time.Time
}

// NewEngine constructs an Engine with production defaults.
func NewEngine(scorers *resilience.FallbackGroup[Scorer], spillWriter spill.Writer, reporter diagnostics.Reporter) *Engine {
	return &Engine{
		Scorers:     scorers,
		SpillWriter: spillWriter,
		Reporter:    reporter,
		Concurrency: 1,
		sleep:       sleepCtx,
		randFloat:   rand.Float64,
		now:         time.Now,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Score runs the batching, retry and spill protocol over preFiltered and
// returns scored segments sorted by final_score descending. The caller runs
// [Preflight] and the heuristic pre-filter before calling it; candidates is
// not read. An empty preFiltered returns without placing a call. On a spill
// it returns the segments scored before the spill together with ErrSpilled.
func (e *Engine) Score(ctx context.Context, candidates []clipmodel.CandidateSegment, cfg Config, preFiltered []clipmodel.CandidateSegment) ([]clipmodel.ScoredSegment, error) {
	cfg = cfg.WithDefaults()

	if len(preFiltered) == 0 {
		return nil, nil
	}

	batches := chunk(preFiltered, cfg.BatchSize)
	results := make([][]clipmodel.ScoredSegment, len(batches))

	var (
		mu           sync.Mutex
		stopDispatch atomic.Bool
		spilled      bool
		spillErr     error
	)

	g, gctx := errgroup.WithContext(ctx)
	concurrency := e.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	g.SetLimit(concurrency)

	for i, batch := range batches {
		i, batch := i, batch

		if stopDispatch.Load() {
			break
		}
		if i > 0 {
			if err := e.sleep(gctx, cfg.InterRequestDelay); err != nil {
				return nil, fmt.Errorf("scoring: %w", ErrCancelled)
			}
		}

		g.Go(func() error {
			if stopDispatch.Load() {
				return nil
			}
			start := e.now()
			scored, retries, spillInfo, err := e.runBatch(gctx, batch, cfg)
			if e.Reporter != nil {
				e.Reporter.BatchScored(gctx, e.activeBackendName(), e.now().Sub(start), retries, err)
			}

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return fmt.Errorf("scoring: %w", ErrCancelled)
				}
				return err
			}

			if spillInfo != nil {
				stopDispatch.Store(true)
				spilled = true
				spillErr = e.spillRemaining(batches[i:], results[:i], spillInfo.retryAfter)
				return nil
			}

			results[i] = scored
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if spilled && spillErr != nil {
		return nil, spillErr
	}

	var scored []clipmodel.ScoredSegment
	for _, r := range results {
		scored = append(scored, r...)
	}

	sortByFinalScore(scored)
	if spilled {
		return scored, ErrSpilled
	}
	return scored, nil
}

// spillInfo signals that a batch's retry loop hit a cooldown above
// threshold and the remainder of the run must be spilled.
type spillInfo struct {
	retryAfter time.Duration
}

// runBatch sends one batch through the retry/backoff protocol and returns
// its scored segments, or a non-nil spillInfo if the cooldown exceeded the
// threshold.
func (e *Engine) runBatch(ctx context.Context, batch []clipmodel.CandidateSegment, cfg Config) ([]clipmodel.ScoredSegment, int, *spillInfo, error) {
	systemPrompt := buildSystemPrompt(cfg.PromptTemplate)
	userPrompt := buildUserPrompt(batch)

	retries := 0
	for attempt := 0; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.PerAttemptTimeout)
		content, err := resilience.ExecuteWithResult(e.Scorers, func(s Scorer) (string, error) {
			return s.ScoreBatch(attemptCtx, systemPrompt, userPrompt, cfg.Temperature)
		})
		cancel()

		if err == nil {
			return e.parseBatch(content, batch), retries, nil, nil
		}

		if ctx.Err() != nil {
			return nil, retries, nil, ctx.Err()
		}

		if rle, ok := AsRateLimitError(err); ok && rle.HasRetryAfter {
			if rle.RetryAfter > cfg.MaxCooldownThreshold {
				return nil, retries, &spillInfo{retryAfter: rle.RetryAfter}, nil
			}
			wait := rle.RetryAfter + time.Duration(1+e.randFloat()*4)*time.Second
			slog.Warn("scoring: rate limited, sleeping before retry", "retry_after", rle.RetryAfter, "sleep", wait)
			if err := e.sleep(ctx, wait); err != nil {
				return nil, retries, nil, err
			}
			retries++
			continue
		}

		if attempt >= cfg.MaxRetries {
			// Budget exhausted: segments in this batch fall back rather
			// than aborting the run (§4.4 step 6 treats unparseable/failed
			// results the same as missing ones).
			slog.Warn("scoring: batch exhausted retry budget, falling back", "error", err)
			return fallbackSegments(batch, "AI analysis failed"), retries, nil, nil
		}

		backoff := time.Duration(math.Min(300, math.Pow(2, float64(attempt))+e.randFloat())) * time.Second
		slog.Warn("scoring: transient failure, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if err := e.sleep(ctx, backoff); err != nil {
			return nil, retries, nil, err
		}
		retries++
	}
}

// parseBatch extracts the JSON response and maps each result to its
// request segment by id, falling back to positional matching when a
// result carries no (or an unrecognised) id. Segments without any result
// receive a fallback Scored Segment.
func (e *Engine) parseBatch(content string, batch []clipmodel.CandidateSegment) []clipmodel.ScoredSegment {
	resp, err := ExtractJSON(content)
	if err != nil {
		slog.Warn("scoring: unparseable response, falling back entire batch", "error", err)
		return fallbackSegments(batch, "AI analysis failed")
	}

	byID := make(map[int]segmentResult, len(resp.Results))
	for _, r := range resp.Results {
		byID[r.ID] = r
	}

	out := make([]clipmodel.ScoredSegment, len(batch))
	for i, c := range batch {
		r, ok := byID[c.ID]
		if !ok && i < len(resp.Results) {
			r, ok = resp.Results[i], true
		}
		if !ok {
			out[i] = clipmodel.FallbackScoredSegment(c, "AI analysis failed")
			continue
		}
		out[i] = clipmodel.ScoredSegment{CandidateSegment: c, Score: toScoreReport(r)}
	}
	return out
}

func toScoreReport(r segmentResult) clipmodel.ScoreReport {
	verdict := clipmodel.Verdict(r.Verdict)
	if verdict == "" {
		verdict = clipmodel.VerdictSkip
	}

	report := clipmodel.ScoreReport{
		HookScore:         r.HookScore,
		RetentionScore:    r.RetentionScore,
		EmotionScore:      r.EmotionScore,
		RelatabilityScore: r.RelatabilityScore,
		CompletionScore:   r.CompletionScore,
		PlatformFitScore:  r.PlatformFitScore,
		Verdict:           verdict,
		Strengths:         r.Strengths,
		Weaknesses:        r.Weaknesses,
		FirstThreeWords:   r.FirstThreeWords,
		PrimaryEmotion:    r.PrimaryEmotion,
		OptimalPlatform:   r.OptimalPlatform,
	}
	if r.FinalScore != nil {
		report.FinalScore = *r.FinalScore
	} else {
		report.FinalScore = report.ComputeFinalScore()
	}
	return report
}

func fallbackSegments(batch []clipmodel.CandidateSegment, reason string) []clipmodel.ScoredSegment {
	out := make([]clipmodel.ScoredSegment, len(batch))
	for i, c := range batch {
		out[i] = clipmodel.FallbackScoredSegment(c, reason)
	}
	return out
}

// spillRemaining writes the already-scored prefix and the still-unscored
// remainder to the spill writer (§4.5).
func (e *Engine) spillRemaining(remainingBatches [][]clipmodel.CandidateSegment, scoredSoFar [][]clipmodel.ScoredSegment, retryAfter time.Duration) error {
	var scored []clipmodel.ScoredSegment
	for _, r := range scoredSoFar {
		scored = append(scored, r...)
	}

	var remaining []clipmodel.CandidateSegment
	for _, b := range remainingBatches {
		remaining = append(remaining, b...)
	}

	record := clipmodel.SpillRecord{
		Timestamp:         e.now().Unix(),
		ScoredSegments:    scored,
		RemainingSegments: remaining,
		Reason:            clipmodel.ReasonRateLimitExceeded,
	}

	path, err := e.SpillWriter.Write(record)
	if err != nil {
		return fmt.Errorf("scoring: spill write: %w", err)
	}

	slog.Info("scoring: spilled partial state due to long cooldown",
		"retry_after", retryAfter, "path", path, "scored_count", len(scored), "remaining_count", len(remaining))
	return nil
}

func (e *Engine) activeBackendName() string {
	// FallbackGroup does not expose the winning entry's name directly;
	// callers that need per-backend attribution should wrap Scorers with
	// a naming Scorer. For diagnostics purposes "scoring" is sufficient
	// granularity at the engine level.
	return "scoring"
}

func chunk(candidates []clipmodel.CandidateSegment, size int) [][]clipmodel.CandidateSegment {
	if size <= 0 {
		size = 1
	}
	var out [][]clipmodel.CandidateSegment
	for i := 0; i < len(candidates); i += size {
		end := i + size
		if end > len(candidates) {
			end = len(candidates)
		}
		out = append(out, candidates[i:end])
	}
	return out
}

func sortByFinalScore(segments []clipmodel.ScoredSegment) {
	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].Score.FinalScore != segments[j].Score.FinalScore {
			return segments[i].Score.FinalScore > segments[j].Score.FinalScore
		}
		if segments[i].Start != segments[j].Start {
			return segments[i].Start < segments[j].Start
		}
		return segments[i].End < segments[j].End
	})
}
