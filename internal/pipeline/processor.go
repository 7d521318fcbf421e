package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/akolanti/TenthLine/internal/chunking"
	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/internal/metrics"
	"github.com/akolanti/TenthLine/pkg/logger_i"
	"golang.org/x/sync/errgroup"
)

var logger *logger_i.Logger

func init() {
	logger = logger_i.NewLogger("pipeline")
}

// ProgressFunc receives a completion percentage and a short stage description.
type ProgressFunc func(percent int, stage string)

// Processor is the entry point for a batch: cache lookup, routing to the
// direct or chunked path, merge and cache write.
type Processor struct {
	settings  config.Settings
	extractor Extractor
	chunks    *ChunkPipeline
	merger    *Merger
	cache     docModel.ResultCache
	retry     RetryPolicy
}

func NewProcessor(settings config.Settings, extractor Extractor, renderer Renderer, cache docModel.ResultCache) *Processor {
	return &Processor{
		settings:  settings,
		extractor: extractor,
		chunks:    NewChunkPipeline(settings, extractor, renderer),
		merger:    NewMerger(renderer, settings.Paginate, settings.Routing.VolumePageLimit),
		cache:     cache,
		retry:     NewRetryPolicy(settings.Retry),
	}
}

// IsMassive reports whether the batch takes the chunked path.
func (p *Processor) IsMassive(batch docModel.Batch) bool {
	return batch.TotalBytes() > p.settings.Routing.MassiveThreshold
}

// Process runs the whole batch. Cache failures never fail a batch; a result
// with failed chunks or documents is returned but not cached.
func (p *Processor) Process(ctx context.Context, batch docModel.Batch, progress ProgressFunc) (docModel.ProcessingResult, error) {
	start := time.Now()
	log := logger.FromContext(ctx)
	if progress == nil {
		progress = func(int, string) {}
	}
	if len(batch.Documents) == 0 {
		return docModel.ProcessingResult{}, ErrEmptyBatch
	}

	docs := make([]docModel.Document, len(batch.Documents))
	copy(docs, batch.Documents)
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Order < docs[j].Order })

	progress(5, "checking cache")
	key := CacheKey(Fingerprint(docs, batch.Features))
	if cached, ok := p.lookup(ctx, key); ok {
		cached.FromCache = true
		cached.ProcessingTime = time.Since(start)
		progress(100, "complete (cached)")
		return cached, nil
	}

	routed := docModel.Batch{Documents: docs, Features: batch.Features}
	var plan []docModel.Chunk
	var executor *Executor
	var documentWorkers int
	var ttl time.Duration
	var method docModel.ProcessingMethod

	routing := p.settings.Routing
	if p.IsMassive(routed) {
		method = docModel.MethodChunked
		plan = chunking.Plan(docs, routing.ChunkSize)
		executor = NewExecutor(routing.MassiveWorkers, routing.PaceDelay, routing.ChunkTimeout, p.retry)
		documentWorkers = routing.DocumentWorkers
		ttl = p.settings.Cache.LongTTL
	} else {
		method = docModel.MethodDirect
		plan = chunking.Plan(docs, 0)
		executor = NewExecutor(1, 0, routing.ChunkTimeout, p.retry)
		documentWorkers = routing.DirectWorkers
		ttl = p.settings.Cache.ShortTTL
	}
	log.Info("processing batch", "method", method, "documents", len(docs),
		"bytes", routed.TotalBytes(), "chunks", len(plan))

	fn := func(cctx context.Context, chunk docModel.Chunk) (docModel.ProcessingResult, error) {
		return p.chunks.Process(cctx, chunk, batch.Features, documentWorkers)
	}

	progress(10, fmt.Sprintf("processing %d chunks", len(plan)))
	var completed atomic.Int64
	var outcomes []ChunkOutcome
	onDone := func(o ChunkOutcome) {
		n := completed.Add(1)
		if o.Err != nil {
			log.Warn("chunk failed", "chunk", o.Chunk.Index, "timedOut", o.TimedOut, "attempts", o.Attempts, "Error", o.Err)
		}
		progress(10+int(80*n/int64(len(plan))), fmt.Sprintf("processed chunk %d of %d", n, len(plan)))
	}
	if method == docModel.MethodDirect {
		outcome := executor.Execute(ctx, plan[0], fn)
		onDone(outcome)
		outcomes = []ChunkOutcome{outcome}
	} else {
		outcomes = executor.Run(ctx, plan, fn, onDone)
	}

	progress(90, "merging")
	result, err := p.merger.Merge(ctx, outcomes, batch.Features)
	if err != nil {
		log.Error("batch produced no result", "Error", err)
		return result, err
	}
	result.Method = method
	result.ProcessingTime = time.Since(start)
	metrics.RecordClassified(result.Stats)
	metrics.CaptureJobMetrics(string(method), result.ProcessingTime)

	if result.Partial() {
		log.Warn("partial result not cached", "failedChunks", len(result.FailedChunks),
			"failedDocuments", len(result.FailedDocuments))
	} else {
		p.store(ctx, key, result, ttl)
	}
	progress(100, "complete")
	return result, nil
}

func (p *Processor) lookup(ctx context.Context, key string) (docModel.ProcessingResult, bool) {
	if p.cache == nil {
		return docModel.ProcessingResult{}, false
	}
	start := time.Now()
	result, ok, err := p.cache.Get(ctx, key)
	metrics.CaptureExecutionMetrics("cache_get", time.Since(start))
	switch {
	case err != nil:
		logger.FromContext(ctx).Warn("cache lookup failed, computing", "key", key, "Error", err)
		metrics.RecordCacheLookup("error")
		return docModel.ProcessingResult{}, false
	case !ok:
		metrics.RecordCacheLookup("miss")
		return docModel.ProcessingResult{}, false
	}
	metrics.RecordCacheLookup("hit")
	return result, true
}

func (p *Processor) store(ctx context.Context, key string, result docModel.ProcessingResult, ttl time.Duration) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Put(ctx, key, result, ttl); err != nil {
		logger.FromContext(ctx).Warn("cache write failed", "key", key, "Error", err)
	}
}

type Quote struct {
	TotalPages            int                `json:"total_pages"`
	DocumentCount         int                `json:"document_count"`
	SelectedServices      []docModel.Feature `json:"selected_services"`
	ServiceCount          int                `json:"service_count"`
	CostPerPagePerService int                `json:"cost_per_page_per_service"`
	TotalCost             int                `json:"total_cost"`
	Currency              string             `json:"currency"`
}

// Quote prices a batch: pages times enabled features times the unit price.
// Any unreadable document fails the quote.
func (p *Processor) Quote(ctx context.Context, batch docModel.Batch) (Quote, error) {
	if len(batch.Documents) == 0 {
		return Quote{}, ErrEmptyBatch
	}

	counts := make([]int, len(batch.Documents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.settings.Routing.DirectWorkers, 1))
	for i, d := range batch.Documents {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := p.extractor.PageCount(d.Content)
			if err != nil {
				return &ExtractionError{Filename: d.Filename, Err: err}
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Quote{}, err
	}

	q := Quote{
		DocumentCount:         len(batch.Documents),
		SelectedServices:      batch.Features.Enabled(),
		CostPerPagePerService: p.settings.Quote.PricePerPagePerService,
		Currency:              p.settings.Quote.Currency,
	}
	for _, n := range counts {
		q.TotalPages += n
	}
	q.ServiceCount = len(q.SelectedServices)
	q.TotalCost = q.TotalPages * q.ServiceCount * q.CostPerPagePerService
	return q, nil
}

// Estimate guesses how long a batch will take from its size alone.
func (p *Processor) Estimate(batch docModel.Batch) time.Duration {
	pages := float64(batch.TotalBytes()) / float64(config.ApproxBytesPerPage)
	rate := p.settings.Routing.PagesPerSecond
	if rate <= 0 {
		return config.MaxEstimate
	}
	d := time.Duration(pages / rate * float64(time.Second))
	return min(max(d, config.MinEstimate), config.MaxEstimate)
}
