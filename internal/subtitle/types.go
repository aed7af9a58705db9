package subtitle

import (
	"time"

	"golang.org/x/text/language"
)

// Reader loads a subtitle track from disk.
type Reader interface {
	Read(path string) (*Track, error)
}

// Writer serializes a subtitle track to disk.
type Writer interface {
	Write(path string, track *Track) error
}

// Cue is a single numbered subtitle entry.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Track is an ordered cue sequence loaded from one SRT file. It is
// read-only once loaded; Window, Shift and Reindex return new tracks.
type Track struct {
	Path     string
	Cues     []Cue
	Language language.Tag
	Format   string
}

// End returns the largest cue end in the track.
func (t *Track) End() time.Duration {
	var end time.Duration
	for _, cue := range t.Cues {
		if cue.End > end {
			end = cue.End
		}
	}
	return end
}

func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Cues)
}
