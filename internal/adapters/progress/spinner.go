package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/mangonel/internal/usecase"
)

// SpinnerProgressReporter shows waiting stages with a spinner and prints
// everything else as colored lines
type SpinnerProgressReporter struct {
	mu      sync.Mutex
	spinner *spinner.Spinner
	out     io.Writer
	stage   string
	started time.Time
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter
func NewSpinnerProgressReporter() *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.HideCursor = false

	return &SpinnerProgressReporter{
		spinner: s,
		out:     os.Stdout,
	}
}

// OnProgress handles progress events
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage != r.stage {
		r.stage = event.Stage
		r.started = time.Now()
	}

	if event.Spinner {
		suffix := " " + event.Message
		if event.Current > 1 {
			suffix += color.New(color.Faint).Sprintf(" (%s)", time.Since(r.started).Round(time.Second))
		}
		r.spinner.Suffix = suffix
		if !r.spinner.Active() {
			r.spinner.Start()
		}
		return
	}

	if r.spinner.Active() {
		r.spinner.Stop()
	}
	if event.Message != "" {
		fmt.Fprintln(r.out, formatEvent(event))
	}
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.println(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.println(color.New(color.FgRed), message)
}

// Stop halts the spinner if it is running
func (r *SpinnerProgressReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

func (r *SpinnerProgressReporter) println(c *color.Color, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Stop spinner temporarily
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}

	c.Fprintln(r.out, message)

	// Restart spinner if it was active
	if wasActive {
		r.spinner.Start()
	}
}

// LineProgressReporter prints every event as a line, for non-interactive runs
type LineProgressReporter struct {
	out io.Writer
}

// NewLineProgressReporter creates a reporter writing to out
func NewLineProgressReporter(out io.Writer) *LineProgressReporter {
	return &LineProgressReporter{out: out}
}

func (r *LineProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if event.Message == "" {
		return
	}
	fmt.Fprintln(r.out, formatEvent(event))
}

func (r *LineProgressReporter) Info(message string) {
	fmt.Fprintln(r.out, message)
}

func (r *LineProgressReporter) Error(message string) {
	color.New(color.FgRed).Fprintln(r.out, message)
}

// formatEvent renders an event as "[i/n] message" when it carries a position
func formatEvent(event usecase.ProgressEvent) string {
	if event.Total > 0 {
		return color.New(color.Faint).Sprintf("[%d/%d] ", event.Current, event.Total) + event.Message
	}
	return event.Message
}

// Ensure the reporters implement ProgressSink
var (
	_ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
	_ usecase.ProgressSink = (*LineProgressReporter)(nil)
)
