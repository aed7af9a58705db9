package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"

	"github.com/MimeLyc/videochop/internal/errs"
	"github.com/MimeLyc/videochop/internal/plan"
)

// NoSubtitle marks a job that is sliced without a subtitle.
const NoSubtitle = "<no-subtitle>"

type Option func(*Gate)

func WithInput(r io.Reader) Option {
	return func(g *Gate) {
		g.in = r
	}
}

func WithOutput(w io.Writer) Option {
	return func(g *Gate) {
		g.out = w
	}
}

// WithAssumeYes prints the plan but does not wait for an answer.
func WithAssumeYes(yes bool) Option {
	return func(g *Gate) {
		g.assumeYes = yes
	}
}

// Gate shows a plan and asks for explicit confirmation before anything
// is written.
type Gate struct {
	in        io.Reader
	out       io.Writer
	assumeYes bool
}

func New(opts ...Option) *Gate {
	g := &Gate{in: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Show prints the plan without asking anything.
func (g *Gate) Show(p *plan.Plan) {
	fmt.Fprintln(g.out, RenderPlan(p))
}

// Confirm renders p and returns nil only when the user answers "yes".
// Any other answer, including end of input, is a UserAbort.
func (g *Gate) Confirm(p *plan.Plan) error {
	g.Show(p)
	if g.assumeYes {
		return nil
	}

	fmt.Fprintf(g.out, "Slice %d videos into %d clips in %s? Type 'yes' to continue: ",
		len(p.Jobs), p.IntervalCount(), p.OutputDir)

	answer, err := bufio.NewReader(g.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return errs.Wrap(err, errs.KindUserAbort, "read confirmation")
	}
	if !IsAffirmative(answer) {
		return errs.Newf(errs.KindUserAbort, "not confirmed (answer %q)", strings.TrimSpace(answer))
	}
	return nil
}

func IsAffirmative(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}

// RenderPlan lays out one row per job and a footer with the totals.
func RenderPlan(p *plan.Plan) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Output: " + p.OutputDir)
	tw.AppendHeader(table.Row{"Clip", "Slices", "Video", "Size", "Subtitle", "Language", "Source"})

	var totalSize uint64
	for _, job := range p.Jobs {
		size := "?"
		if info, err := os.Stat(job.VideoPath); err == nil {
			totalSize += uint64(info.Size())
			size = humanize.Bytes(uint64(info.Size()))
		}

		sub, lang := NoSubtitle, "-"
		if job.HasSubtitle() {
			sub = filepath.Base(job.SubtitlePath)
			if job.Track.Language != language.Und {
				lang = job.Track.Language.String()
			}
		}

		tw.AppendRow(table.Row{
			filepath.Base(job.Stem),
			strconv.Itoa(len(job.Intervals)),
			filepath.Base(job.VideoPath),
			size,
			sub,
			lang,
			job.Source.String(),
		})
	}

	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d videos", len(p.Jobs)),
		strconv.Itoa(p.IntervalCount()),
		"",
		humanize.Bytes(totalSize),
		"",
		"",
		"",
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	var b strings.Builder
	b.WriteString(tw.Render())
	for _, orphan := range p.Orphans {
		fmt.Fprintf(&b, "\nunused subtitle: %s", filepath.Base(orphan))
	}
	return b.String()
}
