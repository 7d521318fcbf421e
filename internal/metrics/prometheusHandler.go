package metrics

import (
	"net/http"
	"time"

	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of jobs in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var chunkOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chunk_outcomes_total",
	Help: "Chunks processed, labelled by outcome (ok, failed, timeout, retried)",
}, []string{"outcome"})

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "result_cache_lookups_total",
	Help: "Result cache lookups labelled by result (hit, miss, error)",
}, []string{"result"})

var classifiedLines = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "classified_lines_total",
	Help: "Lines classified, labelled by tag",
}, []string{"tag"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}
func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func RecordChunkOutcome(outcome string) {
	chunkOutcomes.WithLabelValues(outcome).Inc()
}

func RecordCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

func RecordClassified(stats docModel.Stats) {
	for tag, n := range stats.ByTag {
		classifiedLines.WithLabelValues(string(tag)).Add(float64(n))
	}
}

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "process_batch_duration_seconds",
	Help:    "Total time spent processing a batch, labelled by method.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120, 300},
}, []string{"method"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of cache calls and chunk executions.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30, 60},
}, []string{"service"})

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}
