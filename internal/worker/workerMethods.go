package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/jobModel"
	"github.com/akolanti/TenthLine/internal/metrics"
	"github.com/akolanti/TenthLine/internal/pipeline"
)

func executeJob(job jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, poolSettings.JobTimeout)
	defer cancel()
	log := logger.FromContext(ctx)
	log.Debug("Processing job", "job Id", job.Id, "documents", len(job.Batch.Documents))

	job.CurrentStep = jobModel.CacheCall
	saveJobState(ctx, job, jobModel.JobStatusRunning)

	job = processBatch(ctx, job)

	// the job deadline may already be spent; the terminal write gets its own
	fctx, fcancel := finalizeContext(ctx)
	defer fcancel()
	job.EndTime = time.Now()
	if job.Status == jobModel.JobStatusError {
		saveJobState(fctx, job, jobModel.JobStatusError)
		return
	}
	job.CurrentStep = jobModel.Complete
	saveJobState(fctx, job, jobModel.JobStatusComplete)
}

func finalizeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), poolSettings.FinalizeTimeout)
}

func processBatch(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := logger.FromContext(ctx)

	// progress writes are best effort and never block the batch
	progress := func(percent int, stage string) {
		job.Progress = percent
		job.Stage = stage
		switch {
		case percent >= 90:
			job.CurrentStep = jobModel.Merging
		case percent >= 10:
			job.CurrentStep = jobModel.Processing
		}
		saveJobState(ctx, job, jobModel.JobStatusRunning)
	}

	result, err := _jobService.Processor.Process(ctx, job.Batch, progress)
	if err != nil {
		log.Error("Batch failed", "job Id", job.Id, "err", err)
		job.Status = jobModel.JobStatusError
		job.CurrentStep = jobModel.Error
		job.Error = jobError(err)
		return job
	}

	job.CurrentStep = jobModel.RedisCall
	pctx, pcancel := finalizeContext(ctx)
	defer pcancel()
	if err := _jobService.ResultStore.Put(pctx, config.JobResultKeyPrefix+job.Id, result, config.JobResultTTL); err != nil {
		log.Error("Failed to store job result", "job Id", job.Id, "err", err)
		job.Status = jobModel.JobStatusError
		job.CurrentStep = jobModel.Error
		job.Error = jobModel.JobError{Code: http.StatusServiceUnavailable, Message: "result could not be stored", Retry: true}
		return job
	}

	summary := result
	summary.Output = nil
	job.JobPayload.Result = &summary
	job.Progress = 100
	job.Stage = "complete"
	return job
}

func jobError(err error) jobModel.JobError {
	switch {
	case errors.Is(err, pipeline.ErrEmptyBatch):
		return jobModel.JobError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return jobModel.JobError{Code: http.StatusGatewayTimeout, Message: fmt.Sprintf("job exceeded %s", poolSettings.JobTimeout), Retry: true}
	case pipeline.IsTransient(err):
		return jobModel.JobError{Code: http.StatusServiceUnavailable, Message: err.Error(), Retry: true}
	default:
		return jobModel.JobError{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	}
}

// removeWorker expects the caller to have released its slot in currentWorkerCount.
func removeWorker(reason string) {
	workerWaitGroup.Done()
	logger.Info("Removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&currentWorkerCount))
	metrics.DecrementActiveWorkerCount()
}

func saveJobState(ctx context.Context, job jobModel.Job, jobStatus jobModel.JobStatus) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.FromContext(ctx).Error("Failed to update job status", "err", err)
	}
}
