package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ivlev/slides2video/internal/system"
)

// Report summarizes a finished run for the performance table and the
// benchmark log.
type Report struct {
	Build    string
	Input    string
	Photos   int
	Total    time.Duration
	Result   Result
	Snapshot system.Snapshot
}

// FPS is frames written per second of wall time.
func (r Report) FPS() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Result.Asset.Frames) / r.Total.Seconds()
}

func (r Report) Render(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("PERFORMANCE REPORT")
	tw.AppendHeader(table.Row{"Metric", "Value"})

	t := r.Result.Timings
	tw.AppendRows([]table.Row{
		{"Build", r.Build},
		{"Photos", r.Photos},
		{"Frames", r.Result.Asset.Frames},
		{"Video length", fmt.Sprintf("%.2fs", r.Result.Asset.Duration)},
		{"Total time", fmt.Sprintf("%.2fs", r.Total.Seconds())},
		{"Generating", fmt.Sprintf("%.2fs", t.Generate.Seconds())},
		{"Finalizing", fmt.Sprintf("%.2fs", t.Finalize.Seconds())},
		{"Export", fmt.Sprintf("%.2fs", t.Export.Seconds())},
		{"Effective FPS", fmt.Sprintf("%.2f", r.FPS())},
	})
	tw.AppendSeparator()
	s := r.Snapshot
	tw.AppendRows([]table.Row{
		{"CPUs", s.CPUs},
		{"Process RSS", fmt.Sprintf("%.1f MiB", system.MB(s.ProcRSS))},
		{"Go heap", fmt.Sprintf("%.1f MiB", system.MB(s.HeapAlloc))},
		{"GC cycles", s.NumGC},
		{"Host memory used", fmt.Sprintf("%.1f%%", s.HostMemUsed)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	tw.Render()
}

// Line is the single-line benchmark log entry.
func (r Report) Line(now time.Time) string {
	t := r.Result.Timings
	return fmt.Sprintf("[%s] Build: %s | Input: %s | Photos: %d | Frames: %d | Total: %.2fs | Generate: %.2fs | Export: %.2fs | FPS: %.2f\n",
		now.Format("2006-01-02 15:04:05"),
		r.Build,
		filepath.Base(r.Input),
		r.Photos,
		r.Result.Asset.Frames,
		r.Total.Seconds(),
		t.Generate.Seconds(),
		t.Export.Seconds(),
		r.FPS(),
	)
}

// AppendBenchmark appends Line to the log at path.
func (r Report) AppendBenchmark(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(r.Line(time.Now()))
	return err
}
