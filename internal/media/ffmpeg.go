package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/MimeLyc/videochop/pkg/log"
)

// stderr lines kept for error messages
const stderrTail = 12

// FFmpeg implements Prober with ffprobe and Encoder with ffmpeg. Arguments
// are always passed as a vector, never through a shell.
type FFmpeg struct {
	opts Options
}

func NewFFmpeg(opts Options) *FFmpeg {
	if opts.FFmpegCmd == "" {
		opts.FFmpegCmd = "ffmpeg"
	}
	if opts.FFprobeCmd == "" {
		opts.FFprobeCmd = "ffprobe"
	}
	if opts.VideoCodec == "" {
		opts.VideoCodec = "mpeg4"
	}
	if opts.VideoQuality == "" {
		opts.VideoQuality = "16"
	}
	if opts.AudioCodec == "" {
		opts.AudioCodec = "libmp3lame"
	}
	return &FFmpeg{opts: opts}
}

func (ff *FFmpeg) Duration(ctx context.Context, path string) (time.Duration, error) {
	cmdPath, err := exec.LookPath(ff.opts.FFprobeCmd)
	if err != nil {
		return 0, err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, cmdPath, ff.probeArgs(path)...)
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w%s", path, err, tail(stderr.String()))
	}

	return parseProbeDuration(output)
}

func parseProbeDuration(output []byte) (time.Duration, error) {
	var probeResult struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probeResult); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if probeResult.Format.Duration == "" {
		return 0, fmt.Errorf("duration not available in format metadata")
	}

	seconds, err := strconv.ParseFloat(probeResult.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", probeResult.Format.Duration, err)
	}
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("invalid duration %q", probeResult.Format.Duration)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func (ff *FFmpeg) Encode(ctx context.Context, req EncodeRequest) error {
	if req.End <= req.Start {
		return fmt.Errorf("invalid range %s-%s", req.Start, req.End)
	}

	cmdPath, err := exec.LookPath(ff.opts.FFmpegCmd)
	if err != nil {
		return err
	}

	args := ff.encodeArgs(req)
	log.Debug("ffmpeg %s", strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, cmdPath, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w%s", req.Output, err, tail(stderr.String()))
	}
	return nil
}

func (ff *FFmpeg) probeArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	}
}

func (ff *FFmpeg) encodeArgs(req EncodeRequest) []string {
	args := []string{
		"-y",
		"-i", req.Source,
		"-vcodec", ff.opts.VideoCodec,
		"-qscale:v", ff.opts.VideoQuality,
		"-acodec", ff.opts.AudioCodec,
	}
	args = append(args, ff.opts.ExtraArgs...)
	return append(args,
		"-ss", formatSeconds(req.Start),
		"-to", formatSeconds(req.End),
		req.Output,
	)
}

// formatSeconds renders d as ffmpeg seconds, dropping a zero fraction.
func formatSeconds(d time.Duration) string {
	if d%time.Second == 0 {
		return strconv.FormatInt(int64(d/time.Second), 10)
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func tail(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return ""
	}
	if len(lines) > stderrTail {
		lines = lines[len(lines)-stderrTail:]
	}
	return ": " + strings.Join(lines, " / ")
}
