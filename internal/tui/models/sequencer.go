package models

import tea "github.com/charmbracelet/bubbletea"

// sequencer chains commands so each one starts only after the previous one
// returned. Bubble Tea runs commands concurrently, which would let a
// disconnect overtake the connect issued before it.
type sequencer struct {
	last chan struct{}
}

// then returns a command running fn after every command created before it.
// It must only be called from Update.
func (q *sequencer) then(fn func() tea.Msg) tea.Cmd {
	prev := q.last
	done := make(chan struct{})
	q.last = done

	return func() tea.Msg {
		if prev != nil {
			<-prev
		}
		defer close(done)
		return fn()
	}
}
