package media

import (
	"context"
	"time"
)

// Prober reports the playable duration of a media file.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Encoder cuts the half-open range [Start, End) of Source into Output.
type Encoder interface {
	Encode(ctx context.Context, req EncodeRequest) error
}

type EncodeRequest struct {
	Source string
	Start  time.Duration
	End    time.Duration
	Output string
}

// Options configures the ffmpeg adapter. Zero values fall back to the
// defaults used by NewFFmpeg.
type Options struct {
	FFmpegCmd    string
	FFprobeCmd   string
	VideoCodec   string
	VideoQuality string
	AudioCodec   string
	ExtraArgs    []string
}
