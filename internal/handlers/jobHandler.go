package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/internal/domain/jobModel"
	"github.com/akolanti/TenthLine/internal/job"
	"github.com/akolanti/TenthLine/internal/metrics"
	"github.com/akolanti/TenthLine/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service *job.Service
}

func InitJobHandler(jobService *job.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})

}

func CreateNewJob(newJob newJobData) {
	log := logJH.With("traceId", newJob.traceId, "job id", newJob.id)
	log.Info("To create new job", "documents", len(newJob.batch.Documents), "massive", newJob.massive)
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// GetJobResult loads the stored output of a finished job.
func GetJobResult(ctx context.Context, id string) (docModel.ProcessingResult, bool, error) {
	if handlerInstance == nil {
		return docModel.ProcessingResult{}, false, nil
	}
	return handlerInstance.service.ResultStore.Get(ctx, config.JobResultKeyPrefix+id)
}

// pinger is implemented by the redis backed stores.
type pinger interface {
	Ping(ctx context.Context) error
}

func storeHealth(ctx context.Context, s any) (string, bool) {
	p, ok := s.(pinger)
	if !ok {
		return "memory", true
	}
	if err := p.Ping(ctx); err != nil {
		logJH.FromContext(ctx).Error("Store ping failed", "err", err)
		return "unreachable", false
	}
	return "redis", true
}

// CheckStores reports each store backend and whether all of them answered.
func CheckStores(ctx context.Context) (jobStore string, resultStore string, healthy bool) {
	if handlerInstance == nil {
		return "none", "none", false
	}
	jobStore, jobOk := storeHealth(ctx, handlerInstance.service.JobStore)
	resultStore, resultOk := storeHealth(ctx, handlerInstance.service.ResultStore)
	return jobStore, resultStore, jobOk && resultOk
}

func processor() job.BatchProcessor {
	if handlerInstance == nil {
		return nil
	}
	return handlerInstance.service.Processor
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {

	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued
	_job.JobType = jobModel.JobTypeProcess
	_job.CurrentStep = jobModel.JobInit
	_job.Stage = "queued"
	_job.JobPayload = jobModel.JobPayload{
		DocumentCount:    len(newJob.batch.Documents),
		TotalBytes:       newJob.batch.TotalBytes(),
		Features:         newJob.batch.Features.Enabled(),
		EstimatedSeconds: int(newJob.estimate.Seconds()),
	}
	_job.Batch = newJob.batch

	// the job is visible to status polls before a worker picks it up
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	if err := h.service.JobStore.SaveJob(ctxC, _job); err != nil {
		logJH.Error("Failed to save queued job", "job id", _job.Id, "err", err)
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //this is a blocking send to prevent the system from being overwhelmed
	logJH.Info("Created new job", "job id", _job.Id)

	//extra workers retire once idle
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1) //after sending a request increment counter
	if h.service.WantsWorker(accurateCount, newJob.massive) {
		metrics.StartDispatcherSignalCount() //metrics
		logJH.Debug("Worker count ", "requests", accurateCount)
		h.service.DispatcherChannel <- true
	}
}
