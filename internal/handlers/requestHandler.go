package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/akolanti/TenthLine/internal/adapter"
	"github.com/akolanti/TenthLine/internal/adapter/utils"
	"github.com/akolanti/TenthLine/internal/api"
	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/internal/domain/jobModel"
	"github.com/akolanti/TenthLine/pkg/logger_i"
)

var logRH *logger_i.Logger

const healthPingTimeout = 2 * time.Second

type newJobData struct {
	id       string
	traceId  string
	batch    docModel.Batch
	massive  bool
	estimate time.Duration
}

// HealthHandler godoc
// @Summary      Service health
// @Description  Pings the job store and the result store. Returns 503 when a redis store stops answering.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Failure      503  {object}  api.HealthResponse
// @Router       /healthz [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	jobStore, resultStore, healthy := CheckStores(ctx)
	response := api.HealthResponse{Status: "ok", JobStore: jobStore, ResultStore: resultStore}
	code := http.StatusOK
	if !healthy {
		response.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJsonResponse(w, code, response)
}

// ProcessHandler runs a batch inline. Massive batches are handed to the worker
// pool and answered with 202 unless the request sets force_sync.
// @Summary      Number and merge a batch of PDFs
// @Description  Classifies every line, stamps tenth-line markers, merges and repaginates as requested. Large batches are queued and answered with a job id.
// @Tags         Processing
// @Accept       json
// @Produce      json
// @Param        request  body      api.ProcessRequest    true  "Documents and requested features"
// @Success      200      {object}  api.ProcessResponse   "Composed PDF and per-document summary"
// @Success      202      {object}  api.InitJobResponse   "Batch queued as a background job"
// @Failure      400      {object}  api.JobResponse       "Invalid request data"
// @Failure      413      {object}  api.JobResponse       "Request body too large"
// @Failure      422      {object}  api.JobResponse       "No document could be processed"
// @Failure      504      {object}  api.JobResponse       "Processing timed out"
// @Router       /process [post]
func ProcessHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request ", "remote", request.RemoteAddr)
		return
	}
	requestData, batch, ok := decodeBatch(w, request)
	if !ok {
		return
	}
	p := processor()
	if p == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "processor not ready")
		return
	}

	if p.IsMassive(batch) && !requestData.ForceSync {
		logRH.Info("Massive batch routed to background", "bytes", batch.TotalBytes())
		queueJob(w, request, batch, true)
		return
	}

	result, err := p.Process(request.Context(), batch, nil)
	if err != nil {
		code := statusForError(err)
		logRH.FromContext(request.Context()).Error("Batch failed", "code", code, "err", err)
		WriteErrorResponse(w, code, "", err.Error())
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToProcessResponse(result))
}

// SubmitJobHandler always queues the batch as a background job.
// @Summary      Queue a batch
// @Description  Queues the batch for a background worker and returns a job id with an estimated duration.
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Param        request  body      api.ProcessRequest   true  "Documents and requested features"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data"
// @Router       /jobs [post]
func SubmitJobHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request ", "remote", request.RemoteAddr)
		return
	}
	_, batch, ok := decodeBatch(w, request)
	if !ok {
		return
	}
	if processor() == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "processor not ready")
		return
	}
	queueJob(w, request, batch, processor().IsMassive(batch))
}

// @Summary      Get job status
// @Description  Retrieves progress, stage and, once finished, the result summary of a job.
// @Tags         Jobs
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse  "The current status of the job"
// @Failure      404  {object}  api.JobResponse  "Job not found"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")
		result, isFound := validateId(idString, traceFrom(r.Context()))

		logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
	}
}

// GetResultHandler streams the composed PDF of a finished job.
// @Summary      Download a job result
// @Tags         Jobs
// @Produce      application/pdf
// @Param        id   path      string  true  "Job ID"
// @Success      200  {file}    file             "Composed PDF"
// @Failure      404  {object}  api.JobResponse  "Job not found"
// @Failure      409  {object}  api.JobResponse  "Job has not completed"
// @Failure      410  {object}  api.JobResponse  "Result expired"
// @Router       /result/{id} [get]
func GetResultHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	status, isFound := validateId(idString, traceFrom(r.Context()))
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	if status.Status != jobModel.JobStatusComplete {
		WriteErrorResponse(w, http.StatusConflict, idString, fmt.Sprintf("job is %s", status.Status))
		return
	}

	result, found, err := GetJobResult(r.Context(), idString)
	if err != nil {
		logRH.FromContext(r.Context()).Error("Result lookup failed", "job id", idString, "err", err)
		WriteErrorResponse(w, http.StatusServiceUnavailable, idString, "result store unavailable")
		return
	}
	if !found {
		WriteErrorResponse(w, http.StatusGone, idString, "result expired")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, idString))
	w.Header().Set("X-Total-Pages", strconv.Itoa(result.TotalPages))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Output); err != nil {
		logRH.Error("Couldn't write result", "job id", idString, "err", err)
	}
}

// @Summary      Price a batch
// @Description  Counts pages and prices the requested features without processing anything.
// @Tags         Processing
// @Accept       json
// @Produce      json
// @Param        request  body      api.ProcessRequest  true  "Documents and requested features"
// @Success      200      {object}  api.QuoteResponse
// @Failure      400      {object}  api.JobResponse   "Invalid request data"
// @Router       /quote [post]
func QuoteHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		return
	}
	_, batch, ok := decodeBatch(w, request)
	if !ok {
		return
	}
	p := processor()
	if p == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "processor not ready")
		return
	}
	quote, err := p.Quote(request.Context(), batch)
	if err != nil {
		WriteErrorResponse(w, statusForError(err), "", err.Error())
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToQuoteResponse(quote))
}

func decodeBatch(w http.ResponseWriter, request *http.Request) (api.ProcessRequest, docModel.Batch, bool) {
	var requestData api.ProcessRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the request reader", "err", err)
		}
	}(request.Body)

	body := http.MaxBytesReader(w, request.Body, config.MaxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(&requestData); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "", "request body too large")
			return requestData, docModel.Batch{}, false
		}
		logRH.Warn("Bad Request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return requestData, docModel.Batch{}, false
	}
	batch, err := adapter.ToBatch(requestData)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", err.Error())
		return requestData, docModel.Batch{}, false
	}
	return requestData, batch, true
}

func queueJob(w http.ResponseWriter, request *http.Request, batch docModel.Batch, massive bool) {
	newJob := newJobData{
		id:       utils.GetNewUUID(),
		traceId:  traceFrom(request.Context()),
		batch:    batch,
		massive:  massive,
		estimate: processor().Estimate(batch),
	}
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id, newJob.estimate))
}
