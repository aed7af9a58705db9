package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"
)

// SRTWriter writes SubRip files.
type SRTWriter struct{}

func NewWriter() Writer {
	return SRTWriter{}
}

func (SRTWriter) Write(path string, track *Track) (err error) {
	if track == nil {
		return fmt.Errorf("subtitle track is nil")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create subtitle file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close subtitle file: %w", cerr)
		}
	}()

	return Encode(f, track)
}

// Encode writes track in SRT form to w.
func Encode(w io.Writer, track *Track) error {
	bw := bufio.NewWriter(w)
	for _, cue := range track.Cues {
		fmt.Fprintf(bw, "%d\n", cue.Index)
		fmt.Fprintf(bw, "%s --> %s\n", formatTimestamp(cue.Start), formatTimestamp(cue.End))
		fmt.Fprintf(bw, "%s\n\n", cue.Text)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write subtitle: %w", err)
	}
	return nil
}

func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}
