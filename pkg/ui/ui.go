package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// WaitProgress shows a spinner while waiting for an experiment state.
type WaitProgress struct {
	spinner  *pterm.SpinnerPrinter
	expID    int
	expected string
}

// IsTerminal tells if w is a terminal, where a spinner can be drawn.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewWaitProgress starts a spinner on w.
func NewWaitProgress(w io.Writer, expID int, expected string) *WaitProgress {
	wp := &WaitProgress{expID: expID, expected: expected}
	wp.spinner, _ = pterm.DefaultSpinner.
		WithWriter(w).
		WithRemoveWhenDone(true).
		Start(fmt.Sprintf("Waiting for experiment %d to be %s...", expID, expected))
	return wp
}

func (wp *WaitProgress) Update(state string) {
	if wp.spinner != nil {
		wp.spinner.UpdateText(fmt.Sprintf("Experiment %d is %s, waiting for %s...", wp.expID, state, wp.expected))
	}
}

// Done stops the spinner with the wait outcome.
func (wp *WaitProgress) Done(state string, err error) {
	if wp.spinner == nil {
		return
	}
	if err != nil {
		wp.spinner.Fail(fmt.Sprintf("Experiment %d: %s", wp.expID, err))
		return
	}
	wp.spinner.Success(fmt.Sprintf("Experiment %d is %s", wp.expID, state))
}
