package api

import (
	"context"

	"mixdown/internal/history"
)

// JobReader abstracts history persistence interactions needed for API queries.
type JobReader interface {
	List(ctx context.Context, limit int, statuses ...history.Status) ([]*history.Job, error)
	Counts(ctx context.Context) (map[history.Status]int, error)
	Get(ctx context.Context, id string) (*history.Job, error)
}

// JobService exposes read-only history operations returning API DTOs.
type JobService struct {
	store JobReader
}

// NewJobService constructs a JobService around the provided reader.
func NewJobService(store JobReader) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store}
}

// List returns the newest jobs filtered by status.
func (s *JobService) List(ctx context.Context, limit int, statuses ...history.Status) ([]Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	jobs, err := s.store.List(ctx, limit, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}

// Counts returns job totals keyed by status string.
func (s *JobService) Counts(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return MergeJobCounts(nil), nil
	}
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return MergeJobCounts(counts), nil
}

// Describe fetches a single job, or nil when it does not exist.
func (s *JobService) Describe(ctx context.Context, id string) (*Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	job, err := s.store.Get(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}
