package adapter

import (
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/TenthLine/internal/api"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/internal/domain/jobModel"
	"github.com/akolanti/TenthLine/internal/pipeline"
)

var (
	ErrNoDocuments  = errors.New("at least one document is required")
	ErrNoFilename   = errors.New("every document needs a filename")
	ErrEmptyContent = errors.New("document content is empty")
)

// ToBatch validates a request and turns it into a domain batch.
func ToBatch(req api.ProcessRequest) (docModel.Batch, error) {
	if len(req.Documents) == 0 {
		return docModel.Batch{}, ErrNoDocuments
	}
	docs := make([]docModel.Document, 0, len(req.Documents))
	for i, d := range req.Documents {
		if d.Filename == "" {
			return docModel.Batch{}, fmt.Errorf("document %d: %w", i, ErrNoFilename)
		}
		if len(d.Content) == 0 {
			return docModel.Batch{}, fmt.Errorf("%s: %w", d.Filename, ErrEmptyContent)
		}
		docs = append(docs, docModel.Document{Filename: d.Filename, Order: d.Order, Content: d.Content})
	}
	return docModel.Batch{
		Documents: docs,
		Features: docModel.FeatureSet{
			docModel.FeatureMerge:       req.Features.MergePdfs,
			docModel.FeatureRepaginate:  req.Features.Repaginate,
			docModel.FeatureTenthLining: req.Features.TenthLining,
		},
	}, nil
}

func ToInitJobResponse(id string, estimate time.Duration) api.InitJobResponse {
	return api.InitJobResponse{
		Id:               id,
		StatusURL:        fmt.Sprintf("status/%s", id),
		EstimatedSeconds: int(estimate.Seconds()),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	res := api.JobResponse{
		Id:               job.Id,
		Status:           string(job.Status),
		Progress:         job.Progress,
		Stage:            job.Stage,
		EstimatedSeconds: job.JobPayload.EstimatedSeconds,
		StartTime:        job.CreatedTime,
		EndTime:          job.EndTime,
		Error:            errorPtr,
	}
	if job.JobPayload.Result != nil {
		summary := ToResultSummary(*job.JobPayload.Result)
		res.Result = &summary
		res.ResultURL = fmt.Sprintf("result/%s", job.Id)
	}
	return res
}

func ToResultSummary(r docModel.ProcessingResult) api.ResultSummary {
	s := api.ResultSummary{
		TotalPages:       r.TotalPages,
		Method:           string(r.Method),
		ChunksProcessed:  r.ChunksProcessed,
		FromCache:        r.FromCache,
		ProcessingTimeMs: r.ProcessingTime.Milliseconds(),
		FeaturesApplied:  make([]string, 0, len(r.FeaturesApplied)),
		LinesCounted:     r.Stats.LinesCounted,
		LinesFiltered:    r.Stats.LinesFiltered,
		Documents:        make([]api.DocumentResult, 0, len(r.Documents)),
	}
	for _, f := range r.FeaturesApplied {
		s.FeaturesApplied = append(s.FeaturesApplied, string(f))
	}
	if len(r.Stats.ByTag) > 0 {
		s.LinesByTag = make(map[string]int, len(r.Stats.ByTag))
		for tag, n := range r.Stats.ByTag {
			s.LinesByTag[string(tag)] = n
		}
	}
	for _, d := range r.Documents {
		s.Documents = append(s.Documents, api.DocumentResult(d))
	}
	for _, d := range r.FailedDocuments {
		s.FailedDocuments = append(s.FailedDocuments, api.FailedDocument{Filename: d.Filename, Error: d.Error})
	}
	for _, c := range r.FailedChunks {
		s.FailedChunks = append(s.FailedChunks, api.FailedChunk(c))
	}
	for _, v := range r.Volumes {
		s.Volumes = append(s.Volumes, api.VolumeRange(v))
	}
	return s
}

func ToProcessResponse(r docModel.ProcessingResult) api.ProcessResponse {
	status := "success"
	if r.Partial() {
		status = "partial"
	}
	return api.ProcessResponse{Status: status, Result: ToResultSummary(r), Output: r.Output}
}

func ToQuoteResponse(q pipeline.Quote) api.QuoteResponse {
	services := make([]string, 0, len(q.SelectedServices))
	for _, f := range q.SelectedServices {
		services = append(services, string(f))
	}
	return api.QuoteResponse{
		TotalPages:            q.TotalPages,
		DocumentCount:         q.DocumentCount,
		SelectedServices:      services,
		ServiceCount:          q.ServiceCount,
		CostPerPagePerService: q.CostPerPagePerService,
		TotalCost:             q.TotalCost,
		Currency:              q.Currency,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:     id,
		Status: string(api.JobStatusError),
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
