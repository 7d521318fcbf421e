package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/akolanti/TenthLine/internal/adapter/utils"
	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/middleware"
	"github.com/akolanti/TenthLine/pkg/logger_i"
)

var server *http.Server

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
	// how long running jobs get to finish before the process exits anyway
	DrainTimeout time.Duration
}

// Routes mounts the API on the shared router, next to /metrics and /swagger.
func Routes() http.Handler {
	r := utils.GetRouter()

	r.Router.Get("/healthz", middleware.HealthHandler)
	r.Router.Post("/process", middleware.ProcessHandler)
	r.Router.Post("/jobs", middleware.SubmitJobHandler)
	r.Router.Post("/quote", middleware.QuoteHandler)
	r.Router.Get("/status/{id}", middleware.GetStatusHandler)
	r.Router.Get("/result/{id}", middleware.GetResultHandler)
	return r.Router
}

func CreateServer(listenAddr string) {
	_logger := logger_i.NewLogger("Server")
	server = &http.Server{
		Addr:         listenAddr,
		Handler:      Routes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err, "addr", listenAddr)
	}
}

// ShutDownHandler stops intake first, then lets workers finish their jobs,
// then closes redis. It exits the process if the drain outlives DrainTimeout.
func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger := logger_i.NewLogger("Server")
	_logger.Info("Server is shutting down", "signal", state.String())

	httpCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()
	if server != nil {
		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(httpCtx); err != nil {
			_logger.Error("Could not shutdown gracefully", "err", err)
		}
	}

	if !drainWorkers(shutdownParams) {
		_logger.Error("Force Shut down", "drainTimeout", shutdownParams.DrainTimeout)
		shutdownParams.CloseServices()
		os.Exit(1)
	}
	shutdownParams.CloseServices()
	close(shutdownParams.StopExecution)
	_logger.Info("Gracefully shut down")
}

// drainWorkers reports whether every worker returned within DrainTimeout.
func drainWorkers(p ShutdownParams) bool {
	close(p.WorkerStop)
	done := make(chan struct{})
	go func() {
		p.Group.Wait()
		close(done)
	}()

	timeout := p.DrainTimeout
	if timeout <= 0 {
		timeout = config.ShutdownContextTimeout
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
