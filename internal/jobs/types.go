package jobs

import (
	"context"
	"time"

	"github.com/MimeLyc/videochop/internal/errs"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Func is the body of a task. Its error is recorded on the task and
// never stops sibling tasks.
type Func func(ctx context.Context) error

type SubmitRequest struct {
	// Group ties related tasks together, e.g. all tasks of one video.
	Group string
	Name  string
	// Kind classifies failures that are not already typed errors.
	Kind errs.Kind
	Run  Func
}

// Task is a snapshot of one submitted unit of work.
type Task struct {
	ID         string    `json:"id"`
	Group      string    `json:"group"`
	Name       string    `json:"name"`
	Kind       errs.Kind `json:"-"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Err        error     `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

func (t Task) Done() bool {
	return t.Status == StatusSuccess || t.Status == StatusFailed
}

// Elapsed is the running time of a finished task.
func (t Task) Elapsed() time.Duration {
	if t.StartedAt.IsZero() || t.FinishedAt.IsZero() {
		return 0
	}
	return t.FinishedAt.Sub(t.StartedAt)
}

// Report lists every task of a drained pool in submission order.
type Report struct {
	Tasks []Task
}

func (r *Report) Succeeded() int {
	return r.count(StatusSuccess)
}

func (r *Report) Failed() []Task {
	var ret []Task
	for _, t := range r.Tasks {
		if t.Status == StatusFailed {
			ret = append(ret, t)
		}
	}
	return ret
}

func (r *Report) count(status Status) int {
	n := 0
	for _, t := range r.Tasks {
		if t.Status == status {
			n++
		}
	}
	return n
}
