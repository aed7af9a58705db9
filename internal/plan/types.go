package plan

import (
	"fmt"

	"github.com/MimeLyc/videochop/internal/interval"
	"github.com/MimeLyc/videochop/internal/subtitle"
)

// Source records which algorithm produced a job's intervals.
type Source int

const (
	SourceSubtitle Source = iota
	SourceDuration
)

func (s Source) String() string {
	if s == SourceDuration {
		return "duration"
	}
	return "subtitle"
}

// SubtitlePolicy decides whether a video without a subtitle is planned
// from its duration or rejected.
type SubtitlePolicy int

const (
	SubtitleOptional SubtitlePolicy = iota
	SubtitleRequired
)

// SliceJob is one video and the intervals to cut from it. It is built
// once by the Planner and only read afterwards.
type SliceJob struct {
	Key          string
	VideoPath    string
	SubtitlePath string
	Track        *subtitle.Track
	Stem         string
	Intervals    []interval.Interval
	Source       Source
}

// HasSubtitle reports whether the job has cues to slice. A subtitle file
// without cues is planned by duration and produces no subtitle output.
func (j SliceJob) HasSubtitle() bool {
	return j.SubtitlePath != "" && j.Track.Len() > 0
}

// OutputRoot returns the output path without extension for the n-th
// interval, counting from 1: "<stem>.01", "<stem>.02", ...
func (j SliceJob) OutputRoot(n int) string {
	return fmt.Sprintf("%s.%02d", j.Stem, n)
}

// Plan is the full ordered work list, sorted by stem.
type Plan struct {
	OutputDir string
	Jobs      []SliceJob
	// Orphans are subtitle files whose key matched no video.
	Orphans []string
}

func (p *Plan) IntervalCount() int {
	n := 0
	for _, job := range p.Jobs {
		n += len(job.Intervals)
	}
	return n
}

// TaskCount is the number of encode and slice operations the plan
// dispatches.
func (p *Plan) TaskCount() int {
	n := 0
	for _, job := range p.Jobs {
		per := 1
		if job.HasSubtitle() {
			per = 2
		}
		n += per * len(job.Intervals)
	}
	return n
}

// Request carries the invocation parameters of a run.
type Request struct {
	Dir        string
	Pattern    string
	OutputDir  string
	MinSeconds int
}
