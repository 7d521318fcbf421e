package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/job"
	"github.com/akolanti/TenthLine/internal/metrics"
	"github.com/akolanti/TenthLine/pkg/logger_i"
)

var (
	_jobService        *job.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             *logger_i.Logger
	poolSettings       = config.Default().Workers
)

func InitServices(jobService *job.Service) {
	_jobService = jobService
	dispatcherChannel = jobService.DispatcherChannel
}

// InitWorkerPool starts the dispatcher with settings.Min workers and lets it
// grow to settings.Max on scale-up signals.
func InitWorkerPool(settings config.WorkerSettings, stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	poolSettings = settings
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool", "min", settings.Min, "max", settings.Max)
	go dispatcher()
}

func dispatcher() {
	for i := int64(0); i < poolSettings.Min; i++ {
		createWorker()
	}
	logger.Info("Dispatcher started", "workerCount", atomic.LoadInt64(&currentWorkerCount))
	for range dispatcherChannel {
		if atomic.LoadInt64(&currentWorkerCount) < poolSettings.Max {
			logger.Info("Creating new worker", "workerCount", atomic.LoadInt64(&currentWorkerCount))
			createWorker()
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go worker()
}

// retireIdle claims a slot above the minimum. The CAS keeps two idle
// workers from both retiring past the floor.
func retireIdle() bool {
	for {
		n := atomic.LoadInt64(&currentWorkerCount)
		if n <= poolSettings.Min {
			return false
		}
		if atomic.CompareAndSwapInt64(&currentWorkerCount, n, n-1) {
			return true
		}
	}
}

func worker() {
	idle := time.NewTimer(poolSettings.IdleTimeout)
	defer idle.Stop()
	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			executeJob(currentJob)
			metrics.DecrementJobsInQueue()
			idle.Reset(poolSettings.IdleTimeout)

		case <-stopWorkerChannel:
			atomic.AddInt64(&currentWorkerCount, -1)
			removeWorker("Stop worker signal received")
			return

		case <-idle.C:
			if retireIdle() {
				removeWorker("Idle worker timeout")
				return
			}
			idle.Reset(poolSettings.IdleTimeout)
		}
	}
}
