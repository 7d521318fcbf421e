package middleware

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/akolanti/TenthLine/internal/adapter/utils"
	"github.com/akolanti/TenthLine/internal/handlers"
	"github.com/akolanti/TenthLine/internal/metrics"
	"github.com/akolanti/TenthLine/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var HealthHandler = Wrap(handlers.HealthHandler)

var ProcessHandler = Wrap(handlers.ProcessHandler)
var SubmitJobHandler = Wrap(handlers.SubmitJobHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)
var GetResultHandler = Wrap(handlers.GetResultHandler)
var QuoteHandler = Wrap(handlers.QuoteHandler)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		defer func() {
			if err := recover(); err != nil {
				re.logger.Error("panic recovered", "error", err, "method", r.Method, "path", r.URL.Path, "stack", string(debug.Stack()))
				handlers.WriteErrorResponse(rec, http.StatusInternalServerError, "", "Internal server error")
			}
			path := utils.GetRoutePattern(re.req)
			metrics.HttpRequestsTotal.WithLabelValues(path, strconv.Itoa(rec.Status)).Inc() //metrics
			re.logger.Info("Request served", "method", r.Method, "path", path, "status", rec.Status, "latency_ms", time.Since(start).Milliseconds())
		}()

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Debug("New request received")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re //stop if auth fails
	}
	re = rateLimiter(re)
	return re
}
