package models

// DownloadRequest is the body of the direct-download endpoint.
type DownloadRequest struct {
	URL    string `json:"url" validate:"required,url"`
	Format string `json:"format" validate:"omitempty,alphanum,max=8"`
}

// DownloadedFile describes one delivered artifact of a download request.
type DownloadedFile struct {
	Title       string `json:"title"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
}

// DownloadResult lists the artifacts that were prepared successfully.
// Partial playlist success is still a success as long as the list is
// non-empty.
type DownloadResult struct {
	Status string            `json:"status"`
	Files  []*DownloadedFile `json:"files"`
}

// ConvertAccepted is the 202 body of the async conversion endpoint.
type ConvertAccepted struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id"`
	PollURL string `json:"poll_url"`
}

// JobStatusResponse is what the polling endpoint returns to callers.
type JobStatusResponse struct {
	Status      JobStatus `json:"status"`
	Progress    int       `json:"progress"`
	Message     string    `json:"message"`
	DownloadURL string    `json:"download_url,omitempty"`
}
