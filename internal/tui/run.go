package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run drives m until the batch finishes or the program exits. Events left
// unread when the program ends early are drained after asking the run to
// stop, so the producer never blocks. The returned model holds the result.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := p.Run()
	fm, ok := final.(Model)
	if !ok {
		fm = m
	}
	if _, done := fm.Result(); !done {
		if fm.stopper != nil {
			fm.stopper.Stop()
		}
		for ev := range fm.events {
			fm = fm.apply(ev)
		}
	}
	return fm, err
}
