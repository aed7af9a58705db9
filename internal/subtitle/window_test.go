package subtitle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sec(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func windowFixture() *Track {
	return &Track{Path: "ep.srt", Format: "SRT", Cues: []Cue{
		{Index: 1, Start: sec(2), End: sec(5), Text: "before"},
		{Index: 2, Start: sec(8), End: sec(10), Text: "ends exactly at start"},
		{Index: 3, Start: sec(9), End: sec(11), Text: "straddles start"},
		{Index: 4, Start: sec(12), End: sec(15), Text: "inside"},
		{Index: 5, Start: sec(19.5), End: sec(21), Text: "straddles end"},
		{Index: 6, Start: sec(20), End: sec(22), Text: "starts exactly at end"},
	}}
}

func TestTrack_SliceKeepsOverlappingCuesAndRebases(t *testing.T) {
	track := windowFixture()

	got := track.Slice(sec(10), sec(20))

	require.Len(t, got.Cues, 3)
	assert.Equal(t, []Cue{
		{Index: 1, Start: 0, End: sec(1), Text: "straddles start"},
		{Index: 2, Start: sec(2), End: sec(5), Text: "inside"},
		{Index: 3, Start: sec(9.5), End: sec(11), Text: "straddles end"},
	}, got.Cues)
	assert.Equal(t, "ep.srt", got.Path)

	// source track untouched
	assert.Len(t, track.Cues, 6)
	assert.Equal(t, sec(9), track.Cues[2].Start)
}

func TestTrack_WindowEmpty(t *testing.T) {
	got := windowFixture().Window(sec(100), sec(120))
	assert.Empty(t, got.Cues)
}

func TestTrack_ShiftClampsAtZero(t *testing.T) {
	track := &Track{Cues: []Cue{{Index: 7, Start: sec(1), End: sec(4)}}}
	got := track.Shift(-sec(2))
	assert.Equal(t, time.Duration(0), got.Cues[0].Start)
	assert.Equal(t, sec(2), got.Cues[0].End)
	assert.Equal(t, 7, got.Cues[0].Index)
}

func TestTrack_Reindex(t *testing.T) {
	track := &Track{Cues: []Cue{{Index: 40}, {Index: 41}, {Index: 45}}}
	got := track.Reindex()
	for i, cue := range got.Cues {
		assert.Equal(t, i+1, cue.Index)
	}
}
