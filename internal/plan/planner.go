package plan

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/MimeLyc/videochop/internal/errs"
	"github.com/MimeLyc/videochop/internal/interval"
	"github.com/MimeLyc/videochop/internal/library"
	"github.com/MimeLyc/videochop/internal/media"
	"github.com/MimeLyc/videochop/internal/subtitle"
	"github.com/MimeLyc/videochop/pkg/log"
)

type Option func(*Planner)

func WithPadding(padding time.Duration) Option {
	return func(p *Planner) {
		p.padding = padding
	}
}

func WithSubtitlePolicy(policy SubtitlePolicy) Option {
	return func(p *Planner) {
		p.policy = policy
	}
}

// WithClampToDuration probes subtitled videos too and clamps their
// intervals to the probed duration.
func WithClampToDuration(clamp bool) Option {
	return func(p *Planner) {
		p.clamp = clamp
	}
}

func WithMatcherOptions(opts ...library.Option) Option {
	return func(p *Planner) {
		p.matcherOpts = append(p.matcherOpts, opts...)
	}
}

func WithExtensionClasses(video, sub library.ExtensionClass) Option {
	return func(p *Planner) {
		p.videoClass = video
		p.subtitleClass = sub
	}
}

// Planner pairs videos with subtitles and computes every job's
// intervals. It reads files and probes durations but never writes.
type Planner struct {
	prober        media.Prober
	reader        subtitle.Reader
	padding       time.Duration
	policy        SubtitlePolicy
	clamp         bool
	matcherOpts   []library.Option
	videoClass    library.ExtensionClass
	subtitleClass library.ExtensionClass
}

func NewPlanner(prober media.Prober, reader subtitle.Reader, opts ...Option) *Planner {
	p := &Planner{
		prober:        prober,
		reader:        reader,
		padding:       interval.DefaultPadding,
		policy:        SubtitleOptional,
		videoClass:    library.ClassVideo,
		subtitleClass: library.ClassSubtitle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Planner) Build(ctx context.Context, req Request) (*Plan, error) {
	if req.MinSeconds <= 0 {
		return nil, errs.Newf(errs.KindConfig, "minimum slice length must be positive, got %d", req.MinSeconds)
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return nil, errs.New(errs.KindConfig, "output directory is required")
	}

	matcher, err := library.NewMatcher(req.Pattern, p.matcherOpts...)
	if err != nil {
		return nil, err
	}
	videos, err := matcher.Match(req.Dir, p.videoClass)
	if err != nil {
		return nil, err
	}
	subs, err := matcher.Match(req.Dir, p.subtitleClass)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, errs.Newf(errs.KindMatch, "no %s file matches %q", p.videoClass.Name, req.Pattern).
			WithContext("dir", req.Dir)
	}

	ret := &Plan{
		OutputDir: req.OutputDir,
		Jobs:      make([]SliceJob, 0, len(videos)),
	}

	for _, key := range library.SortedKeys(videos) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		job, err := p.buildJob(ctx, req, key, videos[key], subs[key])
		if err != nil {
			return nil, err
		}
		log.Debug("Planned %s: %d intervals from %s", job.Key, len(job.Intervals), job.Source)
		ret.Jobs = append(ret.Jobs, job)
	}

	for _, key := range library.SortedKeys(subs) {
		if _, ok := videos[key]; !ok {
			log.Warn("Subtitle %s has no matching video", filepath.Base(subs[key]))
			ret.Orphans = append(ret.Orphans, subs[key])
		}
	}

	slices.SortFunc(ret.Jobs, func(a, b SliceJob) int {
		return strings.Compare(a.Stem, b.Stem)
	})
	return ret, nil
}

func (p *Planner) buildJob(ctx context.Context, req Request, key, videoPath, subPath string) (SliceJob, error) {
	job := SliceJob{
		Key:          key,
		VideoPath:    videoPath,
		SubtitlePath: subPath,
		Stem:         filepath.Join(req.OutputDir, key),
	}

	if subPath != "" {
		track, err := p.reader.Read(subPath)
		if err != nil {
			return job, errs.Wrap(err, errs.KindParse, "read subtitle").WithContext("path", subPath)
		}
		job.Track = track
	}

	hasCues := job.Track.Len() > 0
	if !hasCues && p.policy == SubtitleRequired {
		e := errs.Newf(errs.KindMissingSubtitle, "video %s has no usable subtitle", filepath.Base(videoPath)).
			WithContext("key", key)
		if subPath != "" {
			e.WithContext("subtitle", subPath)
		}
		return job, e
	}
	if subPath != "" && !hasCues {
		log.Warn("Subtitle %s has no cues, slicing %s by duration", filepath.Base(subPath), key)
	}

	var total time.Duration
	if !hasCues || p.clamp {
		d, err := p.prober.Duration(ctx, videoPath)
		if err != nil {
			return job, errs.Wrap(err, errs.KindDurationProbe, "probe duration").WithContext("video", videoPath)
		}
		total = d
	}

	opts := []interval.Option{interval.WithPadding(p.padding)}
	if p.clamp {
		opts = append(opts, interval.WithTotal(total))
	}
	computer := interval.New(req.MinSeconds, opts...)

	var intervals []interval.Interval
	var err error
	if hasCues {
		job.Source = SourceSubtitle
		intervals, err = computer.FromCues(job.Track.Cues)
	} else {
		job.Source = SourceDuration
		intervals, err = computer.FromDuration(total)
	}
	if err == nil {
		err = interval.Check(intervals)
	}
	if err != nil {
		kind := errs.KindUnknown
		if job.Source == SourceDuration {
			kind = errs.KindDurationProbe
		}
		return job, errs.Wrap(err, kind, "compute intervals").WithContext("key", key)
	}

	job.Intervals = intervals
	return job, nil
}
