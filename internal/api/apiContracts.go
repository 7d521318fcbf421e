package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id               string            `json:"id"`
	Status           string            `json:"status"`
	Progress         int               `json:"progress"`
	Stage            string            `json:"stage,omitempty"`
	EstimatedSeconds int               `json:"estimated_seconds,omitempty"`
	Result           *ResultSummary    `json:"result,omitempty"`
	ResultURL        string            `json:"result_url,omitempty"`
	Error            *JobOutgoingError `json:"error,omitempty"`
	StartTime        time.Time         `json:"start_time"`
	EndTime          time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"can_retry"`
}

type ResultSummary struct {
	TotalPages       int              `json:"total_pages"`
	Method           string           `json:"processing_method"`
	ChunksProcessed  int              `json:"chunks_processed"`
	FromCache        bool             `json:"from_cache"`
	ProcessingTimeMs int64            `json:"processing_time_ms"`
	FeaturesApplied  []string         `json:"features_applied"`
	LinesCounted     int              `json:"lines_counted"`
	LinesFiltered    int              `json:"lines_filtered"`
	LinesByTag       map[string]int   `json:"lines_by_tag,omitempty"`
	Documents        []DocumentResult `json:"documents"`
	FailedDocuments  []FailedDocument `json:"failed_documents,omitempty"`
	FailedChunks     []FailedChunk    `json:"failed_chunks,omitempty"`
	Volumes          []VolumeRange    `json:"volumes,omitempty"`
}

type DocumentResult struct {
	Filename     string `json:"filename"`
	Pages        int    `json:"pages"`
	ContentLines int    `json:"content_lines"`
	Markers      int    `json:"markers"`
}

type FailedDocument struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type FailedChunk struct {
	ChunkIndex int      `json:"chunk_index"`
	Documents  []string `json:"documents"`
	Error      string   `json:"error"`
	TimedOut   bool     `json:"timed_out"`
}

type VolumeRange struct {
	Number    int `json:"volume"`
	StartPage int `json:"start_page"`
	EndPage   int `json:"end_page"`
}

// ProcessResponse is the synchronous answer; Output is the composed PDF, base64 in JSON.
type ProcessResponse struct {
	Status string        `json:"status"`
	Result ResultSummary `json:"result"`
	Output []byte        `json:"output"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	JobStore    string `json:"job_store"`
	ResultStore string `json:"result_store"`
}

type InitJobResponse struct {
	Id               string `json:"id"`
	StatusURL        string `json:"status_url"`
	EstimatedSeconds int    `json:"estimated_seconds"`
}

type QuoteResponse struct {
	TotalPages            int      `json:"total_pages"`
	DocumentCount         int      `json:"document_count"`
	SelectedServices      []string `json:"selected_services"`
	ServiceCount          int      `json:"service_count"`
	CostPerPagePerService int      `json:"cost_per_page_per_service"`
	TotalCost             int      `json:"total_cost"`
	Currency              string   `json:"currency"`
}

// requests---------------------

// DocumentInput carries one PDF; Content is base64 in JSON.
type DocumentInput struct {
	Filename string `json:"filename" validate:"required"`
	Order    int    `json:"order"`
	Content  []byte `json:"content" validate:"required"`
}

type FeaturesInput struct {
	MergePdfs   bool `json:"merge_pdfs"`
	Repaginate  bool `json:"repaginate"`
	TenthLining bool `json:"tenth_lining"`
}

type ProcessRequest struct {
	Documents []DocumentInput `json:"documents" validate:"required"`
	Features  FeaturesInput   `json:"features"`
	// keeps a massive batch on the synchronous path
	ForceSync bool `json:"force_sync,omitempty"`
}
