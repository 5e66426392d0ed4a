package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/ivlev/slides2video/internal/logging"
)

const barSteps = 1000

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressReporter shows a bar on a terminal and logs every 10% otherwise.
type progressReporter struct {
	bar  *progressbar.ProgressBar
	log  *logging.Logger
	step int
}

func newProgressReporter(f *os.File, log *logging.Logger) *progressReporter {
	r := &progressReporter{log: log}
	if isTerminal(f) {
		r.bar = progressbar.NewOptions(barSteps,
			progressbar.OptionSetWriter(f),
			progressbar.OptionSetDescription("Рендер"),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}
	return r
}

// Update takes the run progress in [0,1].
func (r *progressReporter) Update(v float64) {
	if r.bar != nil {
		_ = r.bar.Set(int(v * barSteps))
		return
	}
	if step := int(v * 10); step > r.step {
		r.step = step
		r.log.Info().Int("percent", step*10).Msg("progress")
	}
}

func (r *progressReporter) Finish(ok bool) {
	if r.bar == nil {
		return
	}
	if ok {
		_ = r.bar.Finish()
	} else {
		_ = r.bar.Exit()
	}
}
