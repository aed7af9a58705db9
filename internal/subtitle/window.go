package subtitle

import "time"

// Window returns the cues that end after start and begin before end.
// Timestamps are left untouched.
func (t *Track) Window(start, end time.Duration) *Track {
	out := t.derive(0)
	for _, cue := range t.Cues {
		if cue.End > start && cue.Start < end {
			out.Cues = append(out.Cues, cue)
		}
	}
	return out
}

// Shift moves every cue by offset. Times that would become negative are
// clamped to zero.
func (t *Track) Shift(offset time.Duration) *Track {
	out := t.derive(len(t.Cues))
	for _, cue := range t.Cues {
		cue.Start = max(cue.Start+offset, 0)
		cue.End = max(cue.End+offset, 0)
		out.Cues = append(out.Cues, cue)
	}
	return out
}

// Reindex renumbers cues from 1 in order.
func (t *Track) Reindex() *Track {
	out := t.derive(len(t.Cues))
	for i, cue := range t.Cues {
		cue.Index = i + 1
		out.Cues = append(out.Cues, cue)
	}
	return out
}

// Slice cuts the half-open range [start, end) out of the track and
// rebases it to zero, ready to be written next to a clip.
func (t *Track) Slice(start, end time.Duration) *Track {
	return t.Window(start, end).Shift(-start).Reindex()
}

func (t *Track) derive(capacity int) *Track {
	return &Track{
		Path:     t.Path,
		Cues:     make([]Cue, 0, capacity),
		Language: t.Language,
		Format:   t.Format,
	}
}
