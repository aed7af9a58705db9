package service

import (
	"context"
	"strings"
	"time"

	"github.com/MimeLyc/videochop/internal/config"
	"github.com/MimeLyc/videochop/internal/executor"
	"github.com/MimeLyc/videochop/internal/library"
	"github.com/MimeLyc/videochop/internal/media"
	"github.com/MimeLyc/videochop/internal/plan"
	"github.com/MimeLyc/videochop/pkg/log"
)

type Planner interface {
	Build(ctx context.Context, req plan.Request) (*plan.Plan, error)
}

type Gate interface {
	Show(p *plan.Plan)
	Confirm(p *plan.Plan) error
}

type Runner interface {
	Execute(ctx context.Context, p *plan.Plan) (*executor.Report, error)
}

type Option func(*Service)

// WithDryRun stops after showing the plan.
func WithDryRun(dryRun bool) Option {
	return func(s *Service) {
		s.dryRun = dryRun
	}
}

// Service runs plan, confirmation and execution in that order. Nothing
// is written before the gate passes.
type Service struct {
	planner Planner
	gate    Gate
	runner  Runner
	dryRun  bool
}

func New(planner Planner, gate Gate, runner Runner, opts ...Option) *Service {
	s := &Service{planner: planner, gate: gate, runner: runner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run returns a nil report on dry runs. Failed tasks are part of the
// report and do not make Run fail.
func (s *Service) Run(ctx context.Context, req plan.Request) (*executor.Report, error) {
	log.Info("Scanning %s for %q", req.Dir, req.Pattern)
	p, err := s.planner.Build(ctx, req)
	if err != nil {
		log.Error("Failed to plan %s: %v", req.Dir, err)
		return nil, err
	}
	log.Info("Planned %d videos, %d intervals, %d orphan subtitles", len(p.Jobs), p.IntervalCount(), len(p.Orphans))

	if s.dryRun {
		s.gate.Show(p)
		return nil, nil
	}
	if err := s.gate.Confirm(p); err != nil {
		log.Info("Aborted before execution: %v", err)
		return nil, err
	}

	report, err := s.runner.Execute(ctx, p)
	if err != nil {
		return report, err
	}
	if failed := report.Failed(); len(failed) > 0 {
		log.Warn("Run %s: %d of %d tasks failed", report.RunID, len(failed), len(report.Tasks))
	}
	return report, nil
}

// MediaOptions maps the encoder section onto the ffmpeg adapter.
func MediaOptions(cfg *config.Config) media.Options {
	return media.Options{
		FFmpegCmd:    cfg.Encoder.FFmpegBin,
		FFprobeCmd:   cfg.Encoder.FFprobeBin,
		VideoCodec:   cfg.Encoder.VideoCodec,
		VideoQuality: cfg.Encoder.VideoQuality,
		AudioCodec:   cfg.Encoder.AudioCodec,
		ExtraArgs:    cfg.Encoder.ExtraArgs,
	}
}

// PlannerOptions maps the media and slice sections onto planner options.
func PlannerOptions(cfg *config.Config) []plan.Option {
	policy := plan.SubtitleOptional
	if cfg.Slice.RequireSubtitles {
		policy = plan.SubtitleRequired
	}
	collision := library.CollisionFail
	if cfg.Slice.LastWins {
		collision = library.CollisionLastWins
	}

	return []plan.Option{
		plan.WithPadding(time.Duration(cfg.Slice.PaddingSeconds) * time.Second),
		plan.WithSubtitlePolicy(policy),
		plan.WithClampToDuration(cfg.Slice.ClampToDuration),
		plan.WithMatcherOptions(
			library.WithPlaceholder([]rune(cfg.Media.Placeholder)[0]),
			library.WithCollisionPolicy(collision),
		),
		plan.WithExtensionClasses(
			library.ExtensionClass{Name: library.ClassVideo.Name, Extensions: lower(cfg.Media.VideoExts)},
			library.ExtensionClass{Name: library.ClassSubtitle.Name, Extensions: lower(cfg.Media.SubtitleExts)},
		),
	}
}

func lower(exts []string) []string {
	ret := make([]string, 0, len(exts))
	for _, ext := range exts {
		ret = append(ret, strings.ToLower(ext))
	}
	return ret
}
