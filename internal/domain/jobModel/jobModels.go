package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/TenthLine/internal/domain/docModel"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	JobInit    InternalStatus = "Init"
	CacheCall  InternalStatus = "CacheCall"
	Processing InternalStatus = "Processing"
	Merging    InternalStatus = "Merging"
	RedisCall  InternalStatus = "Redis"
	Error      InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeProcess JobType = "Process"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
	Progress    int            `json:"progress"`
	Stage       string         `json:"stage,omitempty"`

	// Batch travels through the queue only; it is never persisted.
	Batch docModel.Batch `json:"-"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

// JobPayload is what a status poll sees: the request shape and, once done,
// the result without its output bytes.
type JobPayload struct {
	DocumentCount    int                        `json:"document_count"`
	TotalBytes       int64                      `json:"total_bytes"`
	Features         []docModel.Feature         `json:"features"`
	EstimatedSeconds int                        `json:"estimated_seconds"`
	Result           *docModel.ProcessingResult `json:"result,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
