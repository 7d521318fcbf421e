package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/data/store"
	"github.com/akolanti/TenthLine/internal/domain/jobModel"
	"github.com/akolanti/TenthLine/internal/handlers"
	"github.com/akolanti/TenthLine/internal/job"
	"github.com/akolanti/TenthLine/internal/middleware"
)

func TestRoutes(t *testing.T) {
	// 1. Setup handlers over in-memory stores
	prevBypass := config.NoAuthBypass
	config.NoAuthBypass = true
	t.Cleanup(func() { config.NoAuthBypass = prevBypass })
	middleware.InitRateLimiter(config.ServerSettings{RateLimitPerSecond: 100, RateLimitBurst: 100, LimiterIdleTTL: time.Minute})
	t.Cleanup(func() { middleware.InitRateLimiter(config.Default().Server) })

	handlers.InitJobHandler(job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 1),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          store.InitInMemoryJobStore(config.RedisJobStoreTTL),
		ResultStore:       store.InitInMemoryResultCache(),
	}))
	h := Routes()

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{"health", http.MethodGet, "/healthz", http.StatusOK, `"job_store":"memory"`},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "count_jobs_in_queue"},
		{"swagger redirect", http.MethodGet, "/swagger", http.StatusMovedPermanently, ""},
		{"swagger document", http.MethodGet, "/swagger/doc.json", http.StatusOK, "TenthLine API"},
		{"unknown job status", http.MethodGet, "/status/nope", http.StatusNotFound, "Job not found"},
		{"unknown job result", http.MethodGet, "/result/nope", http.StatusNotFound, "Job not found"},
		{"wrong method", http.MethodGet, "/process", http.StatusMethodNotAllowed, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
			body, _ := io.ReadAll(w.Body)
			if tt.wantBody != "" && !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("expected body to contain %q, got %s", tt.wantBody, body)
			}
		})
	}
}

func TestDrainWorkers(t *testing.T) {
	t.Run("workers that honour the stop signal", func(t *testing.T) {
		stop := make(chan bool)
		wg := &sync.WaitGroup{}
		wg.Add(2)
		for i := 0; i < 2; i++ {
			go func() {
				defer wg.Done()
				<-stop
			}()
		}

		if !drainWorkers(ShutdownParams{WorkerStop: stop, Group: wg, DrainTimeout: time.Second}) {
			t.Error("expected the drain to finish")
		}
	})

	t.Run("a stuck job hits the drain timeout", func(t *testing.T) {
		stop := make(chan bool)
		release := make(chan struct{})
		t.Cleanup(func() { close(release) })
		wg := &sync.WaitGroup{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-release
		}()

		start := time.Now()
		if drainWorkers(ShutdownParams{WorkerStop: stop, Group: wg, DrainTimeout: 50 * time.Millisecond}) {
			t.Fatal("expected the drain to give up")
		}
		if time.Since(start) > time.Second {
			t.Error("drain waited far past its timeout")
		}
	})
}
