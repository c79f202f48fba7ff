package api

import (
	"mixdown/internal/deps"
	"mixdown/internal/history"
	"mixdown/internal/preflight"
)

// FromJob converts a history record to its API representation.
func FromJob(job *history.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:              job.ID,
		SourceA:         job.SourceA,
		SourceB:         job.SourceB,
		Mode:            job.Mode,
		Status:          string(job.Status),
		DurationA:       job.DurationA,
		DurationB:       job.DurationB,
		Duration:        job.Duration,
		OutputBytes:     job.OutputBytes,
		ErrorKind:       job.ErrorKind,
		ErrorMessage:    job.ErrorMessage,
		CleanupWarnings: job.CleanupWarnings,
		ElapsedMillis:   job.Elapsed().Milliseconds(),
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.FinishedAt.IsZero() {
		dto.FinishedAt = job.FinishedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of history records into API DTOs.
func FromJobs(jobs []*history.Job) []Job {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// MergeJobCounts normalizes status counts, reporting every status even when
// no job is in it.
func MergeJobCounts(counts map[history.Status]int) map[string]int {
	out := map[string]int{
		string(history.StatusRunning):   0,
		string(history.StatusCompleted): 0,
		string(history.StatusFailed):    0,
	}
	for status, count := range counts {
		out[string(status)] = count
	}
	return out
}

// FromDependencies converts binary availability reports.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []CheckResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]CheckResult, len(results))
	for i, r := range results {
		out[i] = CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail}
	}
	return out
}
