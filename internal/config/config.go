package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/MimeLyc/videochop/internal/errs"
)

// Config holds everything a chop run needs besides the positional
// arguments. Values are layered: defaults, then the TOML file, then the
// environment (a .env file is loaded first, never overriding real
// variables), then Option funcs. CLI flags are applied last by cmd.
//
// Environment Variables:
// - VIDEOCHOP_PLACEHOLDER: wildcard character in the file pattern (default: N)
// - VIDEOCHOP_MIN_SECONDS: minimum slice length (default: 60)
// - VIDEOCHOP_PADDING: seconds added at each cut (default: 1)
// - VIDEOCHOP_REQUIRE_SUBTITLES: fail when a video has no subtitle (default: false)
// - VIDEOCHOP_LAST_WINS: keep the last file on key collisions (default: false)
// - VIDEOCHOP_CLAMP: probe subtitled videos and clamp to their duration (default: false)
// - FFMPEG_BIN / FFPROBE_BIN: encoder and probe binaries (default: ffmpeg / ffprobe)
// - VIDEOCHOP_VIDEO_CODEC, VIDEOCHOP_VIDEO_QUALITY, VIDEOCHOP_AUDIO_CODEC
// - VIDEOCHOP_CONCURRENCY: worker pool size (default: 4)
// - VIDEOCHOP_ASSUME_YES: skip the confirmation prompt (default: false)
// - LOG_LEVEL: debug, info, warn, error (default: info)
// - LOG_FILE: also append logs to this file (optional)
type Config struct {
	Media   MediaConfig   `toml:"media"`
	Slice   SliceConfig   `toml:"slice"`
	Encoder EncoderConfig `toml:"encoder"`
	Exec    ExecConfig    `toml:"exec"`
	Log     LogConfig     `toml:"log"`
}

// MediaConfig controls how files are matched.
type MediaConfig struct {
	Placeholder  string   `toml:"placeholder"`
	VideoExts    []string `toml:"video_exts"`
	SubtitleExts []string `toml:"subtitle_exts"`
}

// SliceConfig controls interval computation and planning policy.
type SliceConfig struct {
	MinSeconds       int  `toml:"min_seconds"`
	PaddingSeconds   int  `toml:"padding_seconds"`
	RequireSubtitles bool `toml:"require_subtitles"`
	LastWins         bool `toml:"last_wins"`
	ClampToDuration  bool `toml:"clamp_to_duration"`
}

// EncoderConfig holds the ffmpeg adapter settings.
type EncoderConfig struct {
	FFmpegBin    string   `toml:"ffmpeg_bin"`
	FFprobeBin   string   `toml:"ffprobe_bin"`
	VideoCodec   string   `toml:"video_codec"`
	VideoQuality string   `toml:"video_quality"`
	AudioCodec   string   `toml:"audio_codec"`
	ExtraArgs    []string `toml:"extra_args"`
}

type ExecConfig struct {
	Concurrency int  `toml:"concurrency"`
	AssumeYes   bool `toml:"assume_yes"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultPath is looked up in the working directory when no config path is given.
const DefaultPath = "videochop.toml"

// Option is a function type for configuring Config
type Option func(*Config)

func WithMinSeconds(seconds int) Option {
	return func(c *Config) { c.Slice.MinSeconds = seconds }
}

func WithConcurrency(n int) Option {
	return func(c *Config) { c.Exec.Concurrency = n }
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Media: MediaConfig{
			Placeholder:  "N",
			VideoExts:    []string{".avi", ".mp4", ".mkv", ".m4v", ".mov", ".webm", ".ts", ".mpg", ".mpeg", ".wmv", ".flv"},
			SubtitleExts: []string{".srt"},
		},
		Slice: SliceConfig{
			MinSeconds:     60,
			PaddingSeconds: 1,
		},
		Encoder: EncoderConfig{
			FFmpegBin:    "ffmpeg",
			FFprobeBin:   "ffprobe",
			VideoCodec:   "mpeg4",
			VideoQuality: "16",
			AudioCodec:   "libmp3lame",
		},
		Exec: ExecConfig{
			Concurrency: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds a Config. An explicit path must exist; with an empty path
// DefaultPath is used if present. envFile is optional.
func Load(path string, envFile string, opts ...Option) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Wrap(err, errs.KindConfig, "load env file").WithContext("path", envFile)
		}
	}
	cfg.applyEnv()

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	file, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errs.Wrap(err, errs.KindConfig, "open config file").WithContext("path", path)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(c); err != nil {
		return errs.Wrap(err, errs.KindConfig, "decode config file").WithContext("path", path)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Media.Placeholder = getEnvString("VIDEOCHOP_PLACEHOLDER", c.Media.Placeholder)

	c.Slice.MinSeconds = getEnvInt("VIDEOCHOP_MIN_SECONDS", c.Slice.MinSeconds)
	c.Slice.PaddingSeconds = getEnvInt("VIDEOCHOP_PADDING", c.Slice.PaddingSeconds)
	c.Slice.RequireSubtitles = getEnvBool("VIDEOCHOP_REQUIRE_SUBTITLES", c.Slice.RequireSubtitles)
	c.Slice.LastWins = getEnvBool("VIDEOCHOP_LAST_WINS", c.Slice.LastWins)
	c.Slice.ClampToDuration = getEnvBool("VIDEOCHOP_CLAMP", c.Slice.ClampToDuration)

	c.Encoder.FFmpegBin = getEnvString("FFMPEG_BIN", c.Encoder.FFmpegBin)
	c.Encoder.FFprobeBin = getEnvString("FFPROBE_BIN", c.Encoder.FFprobeBin)
	c.Encoder.VideoCodec = getEnvString("VIDEOCHOP_VIDEO_CODEC", c.Encoder.VideoCodec)
	c.Encoder.VideoQuality = getEnvString("VIDEOCHOP_VIDEO_QUALITY", c.Encoder.VideoQuality)
	c.Encoder.AudioCodec = getEnvString("VIDEOCHOP_AUDIO_CODEC", c.Encoder.AudioCodec)

	c.Exec.Concurrency = getEnvInt("VIDEOCHOP_CONCURRENCY", c.Exec.Concurrency)
	c.Exec.AssumeYes = getEnvBool("VIDEOCHOP_ASSUME_YES", c.Exec.AssumeYes)

	c.Log.Level = getEnvString("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnvString("LOG_FILE", c.Log.File)
}

// Validate checks the values a run cannot proceed without.
func (c *Config) Validate() error {
	switch {
	case len([]rune(c.Media.Placeholder)) != 1:
		return errs.Newf(errs.KindConfig, "placeholder must be a single character, got %q", c.Media.Placeholder)
	case c.Slice.MinSeconds <= 0:
		return errs.Newf(errs.KindConfig, "min seconds must be positive, got %d", c.Slice.MinSeconds)
	case c.Slice.PaddingSeconds < 0:
		return errs.Newf(errs.KindConfig, "padding must not be negative, got %d", c.Slice.PaddingSeconds)
	case c.Exec.Concurrency <= 0:
		return errs.Newf(errs.KindConfig, "concurrency must be positive, got %d", c.Exec.Concurrency)
	case c.Encoder.FFmpegBin == "" || c.Encoder.FFprobeBin == "":
		return errs.New(errs.KindConfig, "ffmpeg and ffprobe binaries are required")
	case len(c.Media.VideoExts) == 0 || len(c.Media.SubtitleExts) == 0:
		return errs.New(errs.KindConfig, "video and subtitle extension lists must not be empty")
	}

	for _, ext := range append(append([]string(nil), c.Media.VideoExts...), c.Media.SubtitleExts...) {
		if !strings.HasPrefix(ext, ".") {
			return errs.Newf(errs.KindConfig, "extension %q must start with a dot", ext)
		}
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("min=%ds padding=%ds concurrency=%d require_subtitles=%t last_wins=%t clamp=%t ffmpeg=%s ffprobe=%s",
		c.Slice.MinSeconds, c.Slice.PaddingSeconds, c.Exec.Concurrency,
		c.Slice.RequireSubtitles, c.Slice.LastWins, c.Slice.ClampToDuration,
		c.Encoder.FFmpegBin, c.Encoder.FFprobeBin)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
