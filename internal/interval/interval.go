// Package interval computes the cut points of a video, either from its
// subtitle cues or, without subtitles, from its duration alone.
//
// Intervals are half-open ranges in whole seconds. Starts are floored and
// ends are ceiled from the millisecond values they are derived from, so a
// slice is never shorter than the speech it has to contain.
package interval

import (
	"errors"
	"fmt"
	"time"

	"github.com/MimeLyc/videochop/internal/subtitle"
)

// DefaultPadding is added before the first and after the last cue of
// every slice.
const DefaultPadding = time.Second

var ErrNoCues = errors.New("subtitle track has no cues")

type Interval struct {
	Start int
	End   int
}

func (i Interval) Span() int {
	return i.End - i.Start
}

// StartDuration and EndDuration convert the bounds for the encoder.
func (i Interval) StartDuration() time.Duration {
	return time.Duration(i.Start) * time.Second
}

func (i Interval) EndDuration() time.Duration {
	return time.Duration(i.End) * time.Second
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d,%d)", i.Start, i.End)
}

type Option func(*Computer)

func WithPadding(padding time.Duration) Option {
	return func(c *Computer) {
		c.padding = padding
	}
}

// WithTotal clamps interval ends to the source duration.
func WithTotal(total time.Duration) Option {
	return func(c *Computer) {
		c.total = total
	}
}

// Computer holds the slicing policy: the minimum slice length and the
// padding around cut points.
type Computer struct {
	target  time.Duration
	padding time.Duration
	total   time.Duration
}

func New(targetSeconds int, opts ...Option) Computer {
	c := Computer{
		target:  time.Duration(targetSeconds) * time.Second,
		padding: DefaultPadding,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Computer) TargetSeconds() int {
	return int(c.target / time.Second)
}

type span struct {
	start time.Duration
	end   time.Duration
}

// FromCues walks the cues in order and closes a slice as soon as the
// speech since its head reaches the target length. The head is the first
// cue's start minus padding, so silence before it never counts toward the
// length. Trailing cues that never reach it are merged into the last
// closed slice.
//
// A closed slice is emitted from the earlier of its head and the previous
// slice's end, so silence between slices (and before the first cue)
// belongs to the following slice and the slices cover the timeline
// without gaps.
func (c Computer) FromCues(cues []subtitle.Cue) ([]Interval, error) {
	if c.target <= 0 {
		return nil, fmt.Errorf("target length must be positive, got %s", c.target)
	}
	if len(cues) == 0 {
		return nil, ErrNoCues
	}

	var (
		closed    []span
		open      bool
		head      time.Duration
		reach     time.Duration
		floor     time.Duration
		lastReach time.Duration = -1
	)

	for _, cue := range cues {
		reach = max(reach, cue.End)

		if !open {
			head = max(cue.Start-c.padding, 0)
			if n := len(closed); n > 0 {
				head = max(head, closed[n-1].start+time.Second)
			}
			open = true
		}

		if reach-head >= c.target && reach > lastReach {
			closed = append(closed, span{start: c.emitStart(head, floor, closed), end: c.clampEnd(reach + c.padding)})
			floor = closed[len(closed)-1].end
			lastReach = reach
			open = false
		}
	}

	if open {
		tail := c.clampEnd(reach + c.padding)
		if n := len(closed); n > 0 {
			closed[n-1].end = max(closed[n-1].end, tail)
		} else {
			closed = append(closed, span{start: c.emitStart(head, floor, closed), end: tail})
		}
	}

	return c.toSeconds(closed), nil
}

// FromDuration cuts fixed windows of the target length, padded on both
// sides, and folds the remainder into the last window.
func (c Computer) FromDuration(total time.Duration) ([]Interval, error) {
	d := ceilSeconds(total)
	if d <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %s", total)
	}
	t := c.TargetSeconds()
	if t <= 0 {
		return nil, fmt.Errorf("target length must be at least one second, got %s", c.target)
	}
	p := ceilSeconds(c.padding)

	n := d / t
	if n == 0 {
		return []Interval{{Start: 0, End: d}}, nil
	}

	ret := make([]Interval, 0, n)
	for i := 0; i < n; i++ {
		ret = append(ret, Interval{
			Start: max(0, i*t-p),
			End:   min((i+1)*t+p, d),
		})
	}
	// remainder d%t: the last window runs to the end of the source
	ret[n-1].End = d
	return ret, nil
}

// emitStart pulls a slice's start back to the previous end so no gap is
// left, while keeping starts strictly increasing.
func (c Computer) emitStart(head, floor time.Duration, closed []span) time.Duration {
	start := min(head, floor)
	if n := len(closed); n > 0 {
		start = max(start, closed[n-1].start+time.Second)
	}
	return start
}

func (c Computer) clampEnd(end time.Duration) time.Duration {
	if c.total > 0 {
		return min(end, c.total)
	}
	return end
}

// toSeconds floors starts and ceils ends, then folds away any slice that
// rounding or clamping left empty or not extending past its predecessor.
func (c Computer) toSeconds(spans []span) []Interval {
	ret := make([]Interval, 0, len(spans))
	for _, s := range spans {
		cur := Interval{Start: floorSeconds(s.start), End: ceilSeconds(s.end)}
		if c.total > 0 {
			cur.End = min(cur.End, ceilSeconds(c.total))
		}

		n := len(ret)
		if n > 0 && (cur.Start >= cur.End || cur.End <= ret[n-1].End) {
			ret[n-1].End = max(ret[n-1].End, cur.End)
			continue
		}
		if cur.Start >= cur.End {
			continue
		}
		ret = append(ret, cur)
	}
	return ret
}

// Check verifies the structural invariants shared by both algorithms:
// positive spans, strictly increasing bounds and no gap between
// neighbours.
func Check(intervals []Interval) error {
	for i, cur := range intervals {
		if cur.Start < 0 {
			return fmt.Errorf("interval %d %s starts before zero", i+1, cur)
		}
		if cur.Start >= cur.End {
			return fmt.Errorf("interval %d %s is empty", i+1, cur)
		}
		if i == 0 {
			continue
		}
		prev := intervals[i-1]
		if cur.Start <= prev.Start || cur.End <= prev.End {
			return fmt.Errorf("interval %d %s does not advance past %s", i+1, cur, prev)
		}
		if cur.Start > prev.End {
			return fmt.Errorf("gap between %s and %s", prev, cur)
		}
	}
	return nil
}

// Validate runs Check and also requires every slice but the last to be
// at least the target length.
func (c Computer) Validate(intervals []Interval) error {
	if err := Check(intervals); err != nil {
		return err
	}
	t := c.TargetSeconds()
	for i, cur := range intervals[:max(len(intervals)-1, 0)] {
		if cur.Span() < t {
			return fmt.Errorf("interval %d %s is shorter than %ds", i+1, cur, t)
		}
	}
	return nil
}

func floorSeconds(d time.Duration) int {
	return int(d / time.Second)
}

func ceilSeconds(d time.Duration) int {
	s := int(d / time.Second)
	if d%time.Second > 0 {
		s++
	}
	return s
}
