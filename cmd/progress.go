package main

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/MimeLyc/videochop/internal/executor"
)

type progressReporter struct {
	out  io.Writer
	once sync.Once
	bar  *progressbar.ProgressBar
}

// newProgressReporter returns nil unless w is a terminal.
func newProgressReporter(w io.Writer) *progressReporter {
	f, ok := w.(*os.File)
	if !ok || !isTerminal(f.Fd()) {
		return nil
	}
	return &progressReporter{out: w}
}

func (r *progressReporter) update(p executor.Progress) {
	r.once.Do(func() {
		r.bar = progressbar.NewOptions(p.Total,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription("slicing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	})
	_ = r.bar.Add(1)
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
