package executor

import (
	"fmt"
	"time"

	"github.com/MimeLyc/videochop/internal/jobs"
)

// Report is the outcome of one run. The embedded task report lists
// every encode and slice task in dispatch order.
type Report struct {
	jobs.Report
	RunID      string
	OutputDir  string
	Jobs       int
	Intervals  int
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *Report) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) String() string {
	return fmt.Sprintf("run %s: %d jobs, %d intervals, %d/%d tasks succeeded",
		r.RunID, r.Jobs, r.Intervals, r.Succeeded(), len(r.Tasks))
}
