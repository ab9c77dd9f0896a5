package models

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// bridge wakes the bubbletea loop when player state changes outside of it.  Notifications coalesce: the view
// reads the current state when it renders, so only the fact that something changed is carried.
type bridge struct {
	ch   chan struct{}
	done chan struct{}
	once sync.Once
}

func newBridge() *bridge {
	return &bridge{
		ch:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// notify never blocks, so it is safe from stream observers running on any goroutine including the UI's own
func (b *bridge) notify() {
	select {
	case b.ch <- struct{}{}:
	default:
	}
}

// listen waits for the next notification
func (b *bridge) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.ch:
			return RefreshMsg{}
		case <-b.done:
			return nil
		}
	}
}

func (b *bridge) close() {
	b.once.Do(func() { close(b.done) })
}
