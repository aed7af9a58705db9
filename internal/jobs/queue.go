package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/videochop/internal/errs"
	"github.com/MimeLyc/videochop/pkg/log"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 4

type Option func(*Pool)

// WithOnDone registers a callback invoked after every task finishes.
// It runs on the worker goroutine and must not block for long.
func WithOnDone(fn func(Task)) Option {
	return func(p *Pool) {
		p.onDone = fn
	}
}

// Pool runs submitted tasks on at most a fixed number of goroutines.
// A failing or panicking task is recorded and the others keep running.
type Pool struct {
	workers int
	ctx     context.Context
	group   errgroup.Group
	onDone  func(Task)

	mu        sync.RWMutex
	tasks     map[string]*Task
	order     []string
	idCounter uint64
	waited    bool
}

func NewPool(ctx context.Context, workers int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	p := &Pool{
		workers: workers,
		ctx:     ctx,
		tasks:   make(map[string]*Task),
	}
	p.group.SetLimit(workers)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pool) Workers() int {
	return p.workers
}

// Submit records the task and hands it to a worker. It blocks while all
// workers are busy.
func (p *Pool) Submit(req SubmitRequest) (*Task, error) {
	if req.Run == nil {
		return nil, fmt.Errorf("task %q has no body", req.Name)
	}

	id := fmt.Sprintf("task-%d", atomic.AddUint64(&p.idCounter, 1))
	task := &Task{
		ID:        id,
		Group:     req.Group,
		Name:      req.Name,
		Kind:      req.Kind,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	p.mu.Lock()
	if p.waited {
		p.mu.Unlock()
		return nil, fmt.Errorf("pool already drained, cannot submit %q", req.Name)
	}
	p.tasks[id] = task
	p.order = append(p.order, id)
	snapshot := cloneTask(task)
	p.mu.Unlock()

	p.group.Go(func() error {
		p.run(id, req)
		return nil
	})
	return snapshot, nil
}

func (p *Pool) run(id string, req SubmitRequest) {
	if err := p.ctx.Err(); err != nil {
		p.finish(id, errs.Wrap(err, req.Kind, "not started"))
		return
	}

	p.markRunning(id)
	err := errs.SafeExecute(req.Kind, func() error {
		return req.Run(p.ctx)
	})
	if err != nil && errs.KindOf(err) == errs.KindUnknown {
		err = errs.Wrap(err, req.Kind, req.Name)
	}
	p.finish(id, err)
}

// Wait blocks until every submitted task has finished and returns the
// report. The pool accepts no more tasks afterwards.
func (p *Pool) Wait() *Report {
	p.mu.Lock()
	p.waited = true
	p.mu.Unlock()

	_ = p.group.Wait()

	p.mu.RLock()
	defer p.mu.RUnlock()
	report := &Report{Tasks: make([]Task, 0, len(p.order))}
	for _, id := range p.order {
		report.Tasks = append(report.Tasks, *cloneTask(p.tasks[id]))
	}
	return report
}

func (p *Pool) Get(id string) (*Task, bool) {
	p.mu.RLock()
	task, ok := p.tasks[id]
	p.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneTask(task), true
}

func (p *Pool) List() []*Task {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ret := make([]*Task, 0, len(p.order))
	for _, id := range p.order {
		ret = append(ret, cloneTask(p.tasks[id]))
	}
	return ret
}

func (p *Pool) markRunning(id string) {
	p.mu.Lock()
	if task, ok := p.tasks[id]; ok {
		task.Status = StatusRunning
		task.StartedAt = time.Now()
	}
	p.mu.Unlock()
}

func (p *Pool) finish(id string, err error) {
	p.mu.Lock()
	task, ok := p.tasks[id]
	if !ok {
		p.mu.Unlock()
		return
	}
	task.FinishedAt = time.Now()
	if task.StartedAt.IsZero() {
		task.StartedAt = task.FinishedAt
	}
	if err != nil {
		task.Status = StatusFailed
		task.Err = err
		task.Error = err.Error()
	} else {
		task.Status = StatusSuccess
	}
	snapshot := cloneTask(task)
	p.mu.Unlock()

	if err != nil {
		log.Debug("Task %s (%s) failed: %v", snapshot.Name, snapshot.ID, err)
	}
	if p.onDone != nil {
		p.onDone(*snapshot)
	}
}

func cloneTask(task *Task) *Task {
	if task == nil {
		return nil
	}
	tmp := *task
	return &tmp
}
