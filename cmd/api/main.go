// @title           TenthLine API
// @version         1.0
// @description     Numbers every tenth content line of legal PDFs, merges and repaginates batches, and runs large batches as background jobs.

// @contact.name    API Support

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/data/store"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/internal/domain/jobModel"
	"github.com/akolanti/TenthLine/internal/extract"
	"github.com/akolanti/TenthLine/internal/handlers"
	"github.com/akolanti/TenthLine/internal/job"
	"github.com/akolanti/TenthLine/internal/middleware"
	"github.com/akolanti/TenthLine/internal/pipeline"
	"github.com/akolanti/TenthLine/internal/render"
	"github.com/akolanti/TenthLine/internal/server"
	"github.com/akolanti/TenthLine/internal/worker"
	"github.com/akolanti/TenthLine/pkg/logger_i"
)

var (
	listenAddr        string
	configPath        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.StringVar(&configPath, "config", config.ConfigPath, "path to a YAML settings file")
	flag.Parse()

	settings, err := config.Load(configPath)
	logger_i.Init(settings.LogLevel)
	var logger = logger_i.NewLogger("main")
	if err != nil {
		logger.Error("Invalid configuration", "path", configPath, "err", err)
		os.Exit(1)
	}

	//init buffered job channel
	jobChannel := make(chan jobModel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	var jobStore jobModel.JobStore
	var resultCache docModel.ResultCache
	redisJobStore, jobStoreOk := store.GetRedisJobStore(serviceContext)
	redisCache, cacheOk := store.GetRedisResultCache(serviceContext)
	switch {
	case jobStoreOk && cacheOk:
		jobStore, resultCache = redisJobStore, redisCache
	case config.FALLBACK_REDIS_TO_INTERNALSTORE:
		logger.Error("Redis stores are offline, falling back to in-memory stores")
		jobStore, resultCache = store.InitInMemoryJobStore(config.RedisJobStoreTTL), store.InitInMemoryResultCache()
	default:
		logger.Error("Redis stores are offline, running without a cache")
		jobStore, resultCache = store.InitInMemoryJobStore(config.RedisJobStoreTTL), store.NoopResultCache{}
	}

	extractor := extract.NewPDFExtractor(config.PageExtractTimeout)
	renderer := render.NewPDFRenderer(settings.Paginate)
	processor := pipeline.NewProcessor(settings, extractor, renderer, resultCache)

	//init job service
	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
		ResultStore:       resultCache,
		Processor:         processor,
		ScaleEvery:        settings.Workers.RequestsPerNewWorker,
	})
	logger.Info("Starting job service")

	handlers.InitJobHandler(service)
	middleware.InitRateLimiter(settings.Server)

	//init worker pool
	worker.InitServices(service)
	worker.InitWorkerPool(settings.Workers, stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
		DrainTimeout:     settings.Workers.FinalizeTimeout + config.ShutdownContextTimeout,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
