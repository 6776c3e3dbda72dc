// Package ui shows the progress of a simulation run in the terminal.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/df07/go-acoustic-raytracer/pkg/analysis"
	"github.com/df07/go-acoustic-raytracer/pkg/simulation"
)

// ProgressTUI wraps the bubbletea program for one run
type ProgressTUI struct {
	program  *tea.Program
	quitChan chan struct{}
}

// NewProgressTUI creates the TUI; nothing is drawn until Run
func NewProgressTUI(sceneName string, pairs int, opts ...tea.ProgramOption) *ProgressTUI {
	quitChan := make(chan struct{}, 1)
	return &ProgressTUI{
		program:  tea.NewProgram(NewModel(sceneName, pairs, quitChan), opts...),
		quitChan: quitChan,
	}
}

// Run blocks until the user quits
func (t *ProgressTUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Progress forwards a simulator progress report. Safe to call from any goroutine.
func (t *ProgressTUI) Progress(p simulation.Progress) {
	t.program.Send(ProgressMsg(p))
}

// Finish shows the final summary
func (t *ProgressTUI) Finish(stats simulation.RunStats, decay map[string]analysis.DecayEstimate, err error) {
	t.program.Send(DoneMsg{Stats: stats, Decay: decay, Err: err})
}

// Quit stops the program
func (t *ProgressTUI) Quit() {
	t.program.Quit()
}

// QuitChan signals when the user asked to cancel a run in progress
func (t *ProgressTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
