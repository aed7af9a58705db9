// Package executor cuts every planned interval: one encode task per
// interval and, when the video has a subtitle, one slice task writing
// the re-timed SRT next to it.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/MimeLyc/videochop/internal/errs"
	"github.com/MimeLyc/videochop/internal/interval"
	"github.com/MimeLyc/videochop/internal/jobs"
	"github.com/MimeLyc/videochop/internal/media"
	"github.com/MimeLyc/videochop/internal/plan"
	"github.com/MimeLyc/videochop/internal/subtitle"
	"github.com/MimeLyc/videochop/pkg/file"
	"github.com/MimeLyc/videochop/pkg/log"
)

// LockFileName is created in the output directory for the duration of a
// run so two runs never write the same directory.
const LockFileName = ".videochop.lock"

const (
	VideoExt    = ".mp4"
	SubtitleExt = ".srt"
)

// Progress is passed to the progress callback after each task.
type Progress struct {
	Done  int
	Total int
	Task  jobs.Task
}

type Option func(*Executor)

func WithWorkers(n int) Option {
	return func(e *Executor) {
		e.workers = n
	}
}

func WithProgress(fn func(Progress)) Option {
	return func(e *Executor) {
		e.progress = fn
	}
}

type Executor struct {
	encoder  media.Encoder
	writer   subtitle.Writer
	workers  int
	progress func(Progress)
}

func New(encoder media.Encoder, writer subtitle.Writer, opts ...Option) *Executor {
	e := &Executor{
		encoder: encoder,
		writer:  writer,
		workers: jobs.DefaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs every task of p and blocks until all of them finished.
// Task failures are logged and collected in the report; the returned
// error is reserved for problems that stop the run before dispatch.
func (e *Executor) Execute(ctx context.Context, p *plan.Plan) (*Report, error) {
	if p == nil {
		return nil, errs.New(errs.KindConfig, "plan is nil")
	}
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return nil, errs.Wrap(err, errs.KindConfig, "create output directory").WithContext("dir", p.OutputDir)
	}

	lockPath := filepath.Join(p.OutputDir, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errs.Wrap(err, errs.KindLock, "acquire output lock").WithContext("path", lockPath)
	}
	if !ok {
		return nil, errs.New(errs.KindLock, "another run is writing this output directory").WithContext("path", lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("Failed to release %s: %v", lockPath, err)
		}
	}()

	report := &Report{
		RunID:     uuid.NewString(),
		OutputDir: p.OutputDir,
		Jobs:      len(p.Jobs),
		Intervals: p.IntervalCount(),
		StartedAt: time.Now(),
	}
	total := p.TaskCount()
	log.Info("Run %s: %d jobs, %d intervals, %d tasks on %d workers",
		report.RunID, report.Jobs, report.Intervals, total, e.workers)

	var done int32
	pool := jobs.NewPool(ctx, e.workers, jobs.WithOnDone(func(task jobs.Task) {
		if task.Status == jobs.StatusFailed {
			log.Error("Run %s: %s %s failed for %s: %s", report.RunID, task.Kind, task.Name, task.Group, task.Error)
		}
		if e.progress != nil {
			e.progress(Progress{Done: int(atomic.AddInt32(&done, 1)), Total: total, Task: task})
		}
	}))

	for _, job := range p.Jobs {
		for i, iv := range job.Intervals {
			if err := e.submit(pool, job, i+1, iv); err != nil {
				// only reachable on a programming error; drain what was queued
				report.Report = *pool.Wait()
				return report, err
			}
		}
	}

	report.Report = *pool.Wait()
	report.FinishedAt = time.Now()
	log.Info("Run %s finished: %d succeeded, %d failed in %s",
		report.RunID, report.Succeeded(), len(report.Failed()), report.Elapsed().Round(time.Millisecond))
	return report, nil
}

func (e *Executor) submit(pool *jobs.Pool, job plan.SliceJob, n int, iv interval.Interval) error {
	root := job.OutputRoot(n)

	if job.HasSubtitle() {
		output := file.WithSuffix(root, SubtitleExt)
		track := job.Track
		if _, err := pool.Submit(jobs.SubmitRequest{
			Group: job.Key,
			Name:  fmt.Sprintf("interval %02d %s", n, filepath.Base(output)),
			Kind:  errs.KindSlice,
			Run: func(_ context.Context) error {
				return e.sliceSubtitle(track, iv, output, job.Key, n)
			},
		}); err != nil {
			return err
		}
	}

	output := file.WithSuffix(root, VideoExt)
	req := media.EncodeRequest{
		Source: job.VideoPath,
		Start:  iv.StartDuration(),
		End:    iv.EndDuration(),
		Output: output,
	}
	_, err := pool.Submit(jobs.SubmitRequest{
		Group: job.Key,
		Name:  fmt.Sprintf("interval %02d %s", n, filepath.Base(output)),
		Kind:  errs.KindEncode,
		Run: func(ctx context.Context) error {
			if err := e.encoder.Encode(ctx, req); err != nil {
				return errs.Wrap(err, errs.KindEncode, "encode interval "+iv.String()).
					WithContext("job", job.Key).
					WithContext("interval", n)
			}
			return nil
		},
	})
	return err
}

func (e *Executor) sliceSubtitle(track *subtitle.Track, iv interval.Interval, output, key string, n int) error {
	sliced := track.Slice(iv.StartDuration(), iv.EndDuration())
	if err := e.writer.Write(output, sliced); err != nil {
		return errs.Wrap(err, errs.KindSlice, "write subtitle interval "+iv.String()).
			WithContext("job", key).
			WithContext("interval", n)
	}
	return nil
}
