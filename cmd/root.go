package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/videochop/internal/config"
	"github.com/MimeLyc/videochop/internal/errs"
	"github.com/MimeLyc/videochop/internal/executor"
	"github.com/MimeLyc/videochop/internal/media"
	"github.com/MimeLyc/videochop/internal/plan"
	"github.com/MimeLyc/videochop/internal/prompt"
	"github.com/MimeLyc/videochop/internal/service"
	"github.com/MimeLyc/videochop/internal/subtitle"
	"github.com/MimeLyc/videochop/pkg/file"
	"github.com/MimeLyc/videochop/pkg/log"
)

type rootOptions struct {
	configPath  string
	envFile     string
	dir         string
	pattern     string
	out         string
	seconds     int
	secondsSet  bool
	padding     int
	concurrency int
	requireSubs bool
	lastWins    bool
	clamp       bool
	yes         bool
	dryRun      bool
	logLevel    string
}

func newRootCommand() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:   "videochop <srcpattern> <dstdir> <seconds>",
		Short: "Cut videos into clips at subtitle sentence boundaries",
		Long: `videochop pairs every video matching srcpattern with its subtitle, cuts it
into clips of at least <seconds> that end on a finished sentence and writes
a re-timed subtitle next to each clip.

srcpattern is dir/pattern where N stands for one digit of the episode
number, e.g. videos/lesson.NN`,
		Example:       "  videochop ~/videos/lesson.NN ~/clips 60\n  videochop --dir ~/videos --pattern lesson.NN --out ~/clips --seconds 90 --yes",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 3 {
				return fmt.Errorf("expected <srcpattern> <dstdir> <seconds>, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChop(cmd, args, &opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file path (default ./"+config.DefaultPath+" if present)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before reading the environment")
	flags.StringVar(&opts.dir, "dir", "", "Directory holding the source videos")
	flags.StringVar(&opts.pattern, "pattern", "", "File name pattern, N matches one digit")
	flags.StringVarP(&opts.out, "out", "o", "", "Output directory")
	flags.IntVarP(&opts.seconds, "seconds", "s", 0, "Minimum clip length in seconds")
	flags.IntVar(&opts.padding, "padding", 0, "Seconds added before and after each cut")
	flags.IntVarP(&opts.concurrency, "concurrency", "j", 0, "Number of parallel encode and subtitle tasks")
	flags.BoolVar(&opts.requireSubs, "require-subtitles", false, "Fail when a video has no subtitle")
	flags.BoolVar(&opts.lastWins, "last-wins", false, "On a key collision keep the file that sorts last")
	flags.BoolVar(&opts.clamp, "clamp", false, "Probe subtitled videos and clamp clips to their duration")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Do not ask for confirmation")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Show the plan and exit")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	return rootCmd
}

func runChop(cmd *cobra.Command, args []string, opts *rootOptions) error {
	if len(args) == 3 {
		opts.dir, opts.pattern = file.SplitPattern(args[0])
		opts.out = args[1]
		seconds, err := strconv.Atoi(args[2])
		if err != nil {
			return errs.Newf(errs.KindConfig, "seconds must be an integer, got %q", args[2])
		}
		opts.seconds = seconds
		opts.secondsSet = true
	}
	if opts.pattern == "" || opts.out == "" {
		return errs.New(errs.KindConfig, "a source pattern and an output directory are required")
	}
	if opts.dir == "" {
		opts.dir = "."
	}

	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	closeLog, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	log.Debug("Configuration: %s", cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ff := media.NewFFmpeg(service.MediaOptions(cfg))
	planner := plan.NewPlanner(ff, subtitle.NewReader(), service.PlannerOptions(cfg)...)
	gate := prompt.New(
		prompt.WithInput(cmd.InOrStdin()),
		prompt.WithOutput(cmd.OutOrStdout()),
		prompt.WithAssumeYes(cfg.Exec.AssumeYes),
	)

	execOpts := []executor.Option{executor.WithWorkers(cfg.Exec.Concurrency)}
	if bar := newProgressReporter(cmd.ErrOrStderr()); bar != nil {
		execOpts = append(execOpts, executor.WithProgress(bar.update))
	}
	ex := executor.New(ff, subtitle.NewWriter(), execOpts...)

	svc := service.New(planner, gate, ex, service.WithDryRun(opts.dryRun))
	report, err := svc.Run(ctx, plan.Request{
		Dir:        opts.dir,
		Pattern:    opts.pattern,
		OutputDir:  opts.out,
		MinSeconds: cfg.Slice.MinSeconds,
	})
	if err != nil {
		return err
	}
	if report != nil {
		printSummary(cmd, report)
	}
	return nil
}

// applyFlags overrides configuration with the flags given on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *rootOptions) {
	flags := cmd.Flags()
	if opts.secondsSet || flags.Changed("seconds") {
		cfg.Slice.MinSeconds = opts.seconds
	}
	if flags.Changed("padding") {
		cfg.Slice.PaddingSeconds = opts.padding
	}
	if flags.Changed("concurrency") {
		cfg.Exec.Concurrency = opts.concurrency
	}
	if flags.Changed("require-subtitles") {
		cfg.Slice.RequireSubtitles = opts.requireSubs
	}
	if flags.Changed("last-wins") {
		cfg.Slice.LastWins = opts.lastWins
	}
	if flags.Changed("clamp") {
		cfg.Slice.ClampToDuration = opts.clamp
	}
	if flags.Changed("yes") {
		cfg.Exec.AssumeYes = opts.yes
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
}

func setupLogger(cfg *config.Config) (func(), error) {
	level := log.ParseLevel(cfg.Log.Level)
	if cfg.Log.File == "" {
		log.InitLogger(level)
		return func() {}, nil
	}

	fl, err := log.NewFileLogger(cfg.Log.File, level)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindConfig, "open log file").WithContext("path", cfg.Log.File)
	}
	log.SetLogger(fl.Logger)
	return func() { _ = fl.Close() }, nil
}

func printSummary(cmd *cobra.Command, report *executor.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.String())
	for _, task := range report.Failed() {
		fmt.Fprintf(out, "  failed: %s %s: %s\n", task.Group, task.Name, task.Error)
	}
}
