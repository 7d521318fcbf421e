package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/internal/metrics"
	"golang.org/x/time/rate"
)

// RetryPolicy retries transient chunk failures with exponential backoff and jitter.
type RetryPolicy struct {
	Attempts    int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func NewRetryPolicy(cfg config.RetrySettings) RetryPolicy {
	return RetryPolicy{Attempts: cfg.Attempts, BaseBackoff: cfg.BaseBackoff, MaxBackoff: cfg.MaxBackoff}
}

// Backoff is the wait before retry number attempt (1-based): half the
// exponential delay plus a random share of the other half.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.BaseBackoff <= 0 {
		return 0
	}
	d := p.BaseBackoff << (attempt - 1)
	if d <= 0 || (p.MaxBackoff > 0 && d > p.MaxBackoff) {
		d = p.MaxBackoff
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half)
}

// Do runs fn until it succeeds, returns a non-transient error, or the attempts
// run out. It returns the last error and the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) (int, error) {
	attempts := max(p.Attempts, 1)
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !IsTransient(err) || attempt >= attempts {
			return attempt, err
		}
		metrics.RecordChunkOutcome("retried")
		select {
		case <-time.After(p.Backoff(attempt)):
		case <-ctx.Done():
			return attempt, ctx.Err()
		}
	}
}

// ChunkFunc processes one chunk.
type ChunkFunc func(ctx context.Context, chunk docModel.Chunk) (docModel.ProcessingResult, error)

// ChunkOutcome is the result of one chunk, successful or not.
type ChunkOutcome struct {
	Chunk    docModel.Chunk
	Result   docModel.ProcessingResult
	Err      error
	TimedOut bool
	Attempts int
	Elapsed  time.Duration
}

// Executor runs chunks on a fixed number of workers. Dispatch blocks until a
// worker is free and is paced by a token bucket.
type Executor struct {
	workers      int
	limiter      *rate.Limiter
	chunkTimeout time.Duration
	retry        RetryPolicy
}

func NewExecutor(workers int, pace, chunkTimeout time.Duration, retry RetryPolicy) *Executor {
	workers = max(workers, 1)
	limit := rate.Inf
	if pace > 0 {
		limit = rate.Every(pace)
	}
	return &Executor{
		workers:      workers,
		limiter:      rate.NewLimiter(limit, workers),
		chunkTimeout: chunkTimeout,
		retry:        retry,
	}
}

// Run processes every chunk and returns the outcomes indexed by chunk index.
// onDone, if set, is called once per chunk, never concurrently.
func (e *Executor) Run(ctx context.Context, chunks []docModel.Chunk, fn ChunkFunc, onDone func(ChunkOutcome)) []ChunkOutcome {
	outcomes := make([]ChunkOutcome, len(chunks))
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	var doneMu sync.Mutex

	finish := func(i int, o ChunkOutcome) {
		outcomes[i] = o
		if onDone != nil {
			doneMu.Lock()
			onDone(o)
			doneMu.Unlock()
		}
	}

	for i, chunk := range chunks {
		if err := e.acquire(ctx, sem); err != nil {
			for j := i; j < len(chunks); j++ {
				finish(j, ChunkOutcome{Chunk: chunks[j], Err: &ChunkError{Index: chunks[j].Index, Err: err}})
			}
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			finish(i, e.Execute(ctx, chunk, fn))
		}()
	}
	wg.Wait()
	return outcomes
}

func (e *Executor) acquire(ctx context.Context, sem chan struct{}) error {
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := e.limiter.Wait(ctx); err != nil {
		<-sem
		return err
	}
	return nil
}

// Execute runs a single chunk under the chunk timeout and the retry policy.
// A timeout is final and is not retried.
func (e *Executor) Execute(ctx context.Context, chunk docModel.Chunk, fn ChunkFunc) ChunkOutcome {
	start := time.Now()
	outcome := ChunkOutcome{Chunk: chunk}

	attempts, err := e.retry.Do(ctx, func() error {
		result, err := e.attempt(ctx, chunk, fn)
		if err != nil {
			return err
		}
		outcome.Result = result
		return nil
	})
	outcome.Attempts = attempts
	outcome.Elapsed = time.Since(start)
	metrics.CaptureExecutionMetrics("chunk", outcome.Elapsed)

	switch {
	case err == nil:
		metrics.RecordChunkOutcome("ok")
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		outcome.TimedOut = true
		outcome.Err = &ChunkError{Index: chunk.Index, Err: fmt.Errorf("timed out after %s: %w", e.chunkTimeout, err)}
		metrics.RecordChunkOutcome("timeout")
	default:
		outcome.Err = &ChunkError{Index: chunk.Index, Err: err}
		metrics.RecordChunkOutcome("failed")
	}
	return outcome
}

// attempt abandons fn once the chunk deadline passes, even if fn ignores ctx.
func (e *Executor) attempt(ctx context.Context, chunk docModel.Chunk, fn ChunkFunc) (docModel.ProcessingResult, error) {
	cctx, cancel := ctx, context.CancelFunc(func() {})
	if e.chunkTimeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, e.chunkTimeout)
	}
	defer cancel()

	type chunkReturn struct {
		result docModel.ProcessingResult
		err    error
	}
	done := make(chan chunkReturn, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- chunkReturn{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		result, err := fn(cctx, chunk)
		done <- chunkReturn{result, err}
	}()

	select {
	case r := <-done:
		return r.result, r.err
	case <-cctx.Done():
		return docModel.ProcessingResult{}, cctx.Err()
	}
}
