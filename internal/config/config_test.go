package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/videochop/internal/errs"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VIDEOCHOP_CONCURRENCY", "")
	t.Setenv("VIDEOCHOP_MIN_SECONDS", "")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "N", cfg.Media.Placeholder)
	assert.Equal(t, 60, cfg.Slice.MinSeconds)
	assert.Equal(t, 1, cfg.Slice.PaddingSeconds)
	assert.Equal(t, 4, cfg.Exec.Concurrency)
	assert.Equal(t, "mpeg4", cfg.Encoder.VideoCodec)
	assert.Equal(t, "libmp3lame", cfg.Encoder.AudioCodec)
	assert.Contains(t, cfg.Media.VideoExts, ".mkv")
	assert.Equal(t, []string{".srt"}, cfg.Media.SubtitleExts)
}

func TestLoad_FileThenEnvThenOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "videochop.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[slice]
min_seconds = 90
padding_seconds = 2
require_subtitles = true

[exec]
concurrency = 2

[encoder]
video_codec = "libx264"
`), 0o644))

	t.Setenv("VIDEOCHOP_PADDING", "3")
	t.Setenv("VIDEOCHOP_CONCURRENCY", "")
	t.Setenv("VIDEOCHOP_MIN_SECONDS", "")

	cfg, err := Load(path, "", WithConcurrency(8))
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.Slice.MinSeconds)
	assert.Equal(t, 3, cfg.Slice.PaddingSeconds)
	assert.True(t, cfg.Slice.RequireSubtitles)
	assert.Equal(t, 8, cfg.Exec.Concurrency)
	assert.Equal(t, "libx264", cfg.Encoder.VideoCodec)
	assert.Equal(t, "libmp3lame", cfg.Encoder.AudioCodec)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("VIDEOCHOP_MIN_SECONDS=45\nVIDEOCHOP_CONCURRENCY=6\n"), 0o644))

	t.Setenv("VIDEOCHOP_CONCURRENCY", "3")
	// make sure the value is restored after godotenv sets it
	t.Setenv("VIDEOCHOP_MIN_SECONDS", "")
	require.NoError(t, os.Unsetenv("VIDEOCHOP_MIN_SECONDS"))

	cfg, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.Slice.MinSeconds)
	assert.Equal(t, 3, cfg.Exec.Concurrency)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), "")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConfig))
}

func TestLoad_UnknownFieldFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[slice]\nseconds = 5\n"), 0o644))

	_, err := Load(path, "")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero min seconds", mutate: func(c *Config) { c.Slice.MinSeconds = 0 }},
		{name: "negative padding", mutate: func(c *Config) { c.Slice.PaddingSeconds = -1 }},
		{name: "zero concurrency", mutate: func(c *Config) { c.Exec.Concurrency = 0 }},
		{name: "long placeholder", mutate: func(c *Config) { c.Media.Placeholder = "NN" }},
		{name: "empty ffmpeg", mutate: func(c *Config) { c.Encoder.FFmpegBin = "" }},
		{name: "ext without dot", mutate: func(c *Config) { c.Media.SubtitleExts = []string{"srt"} }},
		{name: "no video exts", mutate: func(c *Config) { c.Media.VideoExts = nil }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindConfig))
		})
	}
}
