package models

import (
	"sync"
	"time"
)

const activityLimit = 8

type activityEntry struct {
	At      time.Time
	Text    string
	IsError bool
}

// activityLog keeps the most recent player callbacks and events for display
type activityLog struct {
	mu      sync.Mutex
	entries []activityEntry
}

func (a *activityLog) add(text string, isError bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, activityEntry{At: time.Now(), Text: text, IsError: isError})
	if len(a.entries) > activityLimit {
		a.entries = a.entries[len(a.entries)-activityLimit:]
	}
}

// recent returns the entries, newest first
func (a *activityLog) recent() []activityEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]activityEntry, len(a.entries))
	for i, e := range a.entries {
		out[len(a.entries)-1-i] = e
	}
	return out
}
