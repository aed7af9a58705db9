package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/videochop/internal/config"
	"github.com/MimeLyc/videochop/internal/errs"
)

const lessonSRT = "1\n00:00:01,000 --> 00:01:00,000\nfirst\n\n2\n00:01:01,000 --> 00:02:05,000\nsecond\n"

func setupSource(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "lesson.01.mkv"), []byte("video"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "lesson.01.srt"), []byte(lessonSRT), 0o644))
	return src
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_DryRunPrintsPlan(t *testing.T) {
	src := setupSource(t)
	dst := filepath.Join(t.TempDir(), "clips")

	out, err := execute(t, "", filepath.Join(src, "lesson.NN"), dst, "60", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "lesson.01.mkv")
	assert.Contains(t, out, "lesson.01.srt")
	assert.NoDirExists(t, dst)
}

func TestRoot_FlagsFormMatchesPositional(t *testing.T) {
	src := setupSource(t)
	dst := filepath.Join(t.TempDir(), "clips")

	out, err := execute(t, "", "--dir", src, "--pattern", "lesson.NN", "--out", dst, "--seconds", "90", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "lesson.01.mkv")
}

func TestRoot_AbortWithoutYes(t *testing.T) {
	src := setupSource(t)
	dst := filepath.Join(t.TempDir(), "clips")

	out, err := execute(t, "n\n", filepath.Join(src, "lesson.NN"), dst, "60")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindUserAbort))
	assert.Contains(t, out, "Type 'yes' to continue")
	assert.NoDirExists(t, dst)
}

func TestRoot_RejectsBadArguments(t *testing.T) {
	src := setupSource(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "wrong arity", args: []string{filepath.Join(src, "lesson.NN"), "out"}},
		{name: "seconds not a number", args: []string{filepath.Join(src, "lesson.NN"), "out", "sixty"}},
		{name: "zero seconds", args: []string{filepath.Join(src, "lesson.NN"), "out", "0"}},
		{name: "no pattern", args: []string{"--out", "out"}},
		{name: "missing config file", args: []string{filepath.Join(src, "lesson.NN"), "out", "60", "--config", filepath.Join(src, "nope.toml")}},
		{name: "pattern without placeholder", args: []string{filepath.Join(src, "lesson.01"), "out", "60", "--dry-run"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestApplyFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--padding", "3", "--last-wins"}))

	cfg := config.Default()
	cfg.Exec.Concurrency = 8
	opts := &rootOptions{padding: 3, lastWins: true}
	applyFlags(cmd, cfg, opts)

	assert.Equal(t, 3, cfg.Slice.PaddingSeconds)
	assert.True(t, cfg.Slice.LastWins)
	assert.Equal(t, 8, cfg.Exec.Concurrency)
	assert.Equal(t, 60, cfg.Slice.MinSeconds)
}
