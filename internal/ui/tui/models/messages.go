package models

import kb "github.com/PizzaHomicide/embedplayer/internal/ui/tui/keybindings"

// RefreshMsg is sent when player state changed and the view should re-render
type RefreshMsg struct{}

// ProviderStartedMsg is sent once the bundle has been requested
type ProviderStartedMsg struct{}

// CommandResultMsg reports the outcome of a player command issued from the dashboard
type CommandResultMsg struct {
	Action kb.Action
	Detail string
	Err    error
}
