package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Response headers set on a successful combine.
const (
	HeaderJobID     = "X-Mixdown-Job"
	HeaderDuration  = "X-Mixdown-Duration"
	HeaderDurationA = "X-Mixdown-Duration-A"
	HeaderDurationB = "X-Mixdown-Duration-B"
	HeaderWarnings  = "X-Mixdown-Cleanup-Warnings"
)

// CombineRequest names the two audio sources to combine.
type CombineRequest struct {
	SourceA string `json:"source_a"`
	SourceB string `json:"source_b"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	JobID string `json:"job_id,omitempty"`
}

// Job describes a history entry in a transport-friendly format.
type Job struct {
	ID              string  `json:"id"`
	SourceA         string  `json:"source_a"`
	SourceB         string  `json:"source_b"`
	Mode            string  `json:"mode"`
	Status          string  `json:"status"`
	DurationA       float64 `json:"duration_a,omitempty"`
	DurationB       float64 `json:"duration_b,omitempty"`
	Duration        float64 `json:"duration,omitempty"`
	OutputBytes     int64   `json:"output_bytes"`
	ErrorKind       string  `json:"error_kind,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	CleanupWarnings int     `json:"cleanup_warnings"`
	CreatedAt       string  `json:"created_at,omitempty"`
	FinishedAt      string  `json:"finished_at,omitempty"`
	ElapsedMillis   int64   `json:"elapsed_ms,omitempty"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// DependencyStatus captures availability of an external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult mirrors a preflight check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// ServiceStatus aggregates runtime information for API consumers.
type ServiceStatus struct {
	Version       string             `json:"version,omitempty"`
	EngineReady   bool               `json:"engine_ready"`
	EngineVersion string             `json:"engine_version,omitempty"`
	JobCounts     map[string]int     `json:"job_counts"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	Checks        []CheckResult      `json:"checks,omitempty"`
}
