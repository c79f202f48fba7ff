package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"mixdown/internal/history"
)

type mockJobReader struct {
	jobs      []*history.Job
	counts    map[history.Status]int
	err       error
	lastLimit int
}

func (m *mockJobReader) List(_ context.Context, limit int, _ ...history.Status) ([]*history.Job, error) {
	m.lastLimit = limit
	return m.jobs, m.err
}

func (m *mockJobReader) Counts(context.Context) (map[history.Status]int, error) {
	return m.counts, m.err
}

func (m *mockJobReader) Get(_ context.Context, id string) (*history.Job, error) {
	for _, job := range m.jobs {
		if job.ID == id {
			return job, m.err
		}
	}
	return nil, m.err
}

func TestJobService_List(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reader := &mockJobReader{jobs: []*history.Job{{
		ID:          "job-1",
		SourceA:     "https://example.com/a.mp3",
		SourceB:     "https://example.com/b.mp3",
		Mode:        "split",
		Status:      history.StatusCompleted,
		Duration:    7.5,
		OutputBytes: 1024,
		CreatedAt:   created,
		FinishedAt:  created.Add(1500 * time.Millisecond),
	}}}
	svc := NewJobService(reader)

	got, err := svc.List(context.Background(), 25)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if reader.lastLimit != 25 {
		t.Fatalf("limit not forwarded: %d", reader.lastLimit)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected job count: %d", len(got))
	}
	job := got[0]
	if job.Status != "completed" || job.Duration != 7.5 {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.CreatedAt != "2026-03-01T12:00:00.000Z" {
		t.Fatalf("unexpected created_at: %q", job.CreatedAt)
	}
	if job.ElapsedMillis != 1500 {
		t.Fatalf("unexpected elapsed: %d", job.ElapsedMillis)
	}
}

func TestJobService_ListError(t *testing.T) {
	svc := NewJobService(&mockJobReader{err: errors.New("db locked")})
	if _, err := svc.List(context.Background(), 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestJobService_Describe(t *testing.T) {
	svc := NewJobService(&mockJobReader{jobs: []*history.Job{{ID: "job-1", Status: history.StatusRunning}}})

	job, err := svc.Describe(context.Background(), "job-1")
	if err != nil || job == nil {
		t.Fatalf("Describe: job=%v err=%v", job, err)
	}
	if job.FinishedAt != "" || job.ElapsedMillis != 0 {
		t.Fatalf("running job should have no finish data: %+v", job)
	}

	missing, err := svc.Describe(context.Background(), "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing job should be nil, nil; got %v %v", missing, err)
	}
}

func TestJobService_CountsFillsAllStatuses(t *testing.T) {
	svc := NewJobService(&mockJobReader{counts: map[history.Status]int{history.StatusFailed: 2}})
	counts, err := svc.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts["failed"] != 2 || counts["running"] != 0 || counts["completed"] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if len(counts) != 3 {
		t.Fatalf("expected 3 statuses, got %v", counts)
	}
}

func TestNilJobService(t *testing.T) {
	var svc *JobService
	if jobs, err := svc.List(context.Background(), 5); jobs != nil || err != nil {
		t.Fatalf("nil service List: %v %v", jobs, err)
	}
	counts, err := svc.Counts(context.Background())
	if err != nil || len(counts) != 3 {
		t.Fatalf("nil service Counts: %v %v", counts, err)
	}
}
