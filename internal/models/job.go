package models

import "time"

type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// ConvertJob is the polling-visible record of one asynchronous conversion.
// Only the worker that owns the job mutates it; pollers read it through the
// registry.
type ConvertJob struct {
	JobID         string    `json:"job_id" redis:"job_id"`
	SessionID     string    `json:"session_id" redis:"session_id"`
	Status        JobStatus `json:"status" redis:"status"`
	Progress      int       `json:"progress" redis:"progress"`
	Message       string    `json:"message" redis:"message"`
	DownloadToken string    `json:"-" redis:"download_token"`
	DownloadURL   string    `json:"download_url,omitempty" redis:"download_url"`
	CreatedAt     time.Time `json:"created_at" redis:"created_at"`
	StartedAt     time.Time `json:"started_at,omitempty" redis:"started_at"`
	CompletedAt   time.Time `json:"completed_at,omitempty" redis:"completed_at"`
}

// TranscodeSpec is everything a worker needs to run one external transcode.
type TranscodeSpec struct {
	InputPath       string   `json:"input_path"`
	OutputPath      string   `json:"output_path"`
	Target          string   `json:"target"`
	CodecArgs       []string `json:"codec_args"`
	DurationSeconds float64  `json:"duration_seconds,omitempty"`
	TimeoutSeconds  int      `json:"timeout_seconds"`
}

// QueueTask is the payload pushed onto the distributed queue.
type QueueTask struct {
	Job     *ConvertJob   `json:"job"`
	Spec    TranscodeSpec `json:"spec"`
	Attempt int           `json:"attempt"`
}
