package job

import (
	"context"
	"time"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/internal/domain/jobModel"
	"github.com/akolanti/TenthLine/internal/pipeline"
)

// BatchProcessor is the part of pipeline.Processor the handlers and workers use.
type BatchProcessor interface {
	Process(ctx context.Context, batch docModel.Batch, progress pipeline.ProgressFunc) (docModel.ProcessingResult, error)
	IsMassive(batch docModel.Batch) bool
	Estimate(batch docModel.Batch) time.Duration
	Quote(ctx context.Context, batch docModel.Batch) (pipeline.Quote, error)
}

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	// finished job outputs, keyed by config.JobResultKeyPrefix + job id
	ResultStore docModel.ResultCache
	Processor   BatchProcessor
	// every ScaleEvery queued jobs the dispatcher is asked for another worker
	ScaleEvery int64
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	ResultStore       docModel.ResultCache
	Processor         BatchProcessor
	ScaleEvery        int64
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		ResultStore:       cfg.ResultStore,
		Processor:         cfg.Processor,
		ScaleEvery:        cfg.ScaleEvery,
	}
}

// WantsWorker reports whether the queued-job count just crossed a scale-up step.
// A massive batch always asks, since it holds a worker for minutes.
func (s *Service) WantsWorker(queued int64, massive bool) bool {
	if massive {
		return true
	}
	every := s.ScaleEvery
	if every <= 0 {
		every = config.Default().Workers.RequestsPerNewWorker
	}
	return queued%every == 0
}
