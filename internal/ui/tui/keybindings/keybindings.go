package keybindings

import tea "github.com/charmbracelet/bubbletea"

// Action represents a specific action that can be triggered by a key
type Action string

// Define all possible actions
const (
	// Global actions
	ActionQuit       Action = "quit"
	ActionToggleHelp Action = "toggle_help"
	ActionBack       Action = "back" // General purpose "go back" or "cancel"

	// Help navigation
	ActionMoveUp   Action = "move_up"
	ActionMoveDown Action = "move_down"

	// Player actions
	ActionTogglePlay    Action = "toggle_play"
	ActionSwitchMedia   Action = "switch_media"
	ActionSeekBack      Action = "seek_back"
	ActionSeekBackPause Action = "seek_back_pause"
	ActionToggleMute    Action = "toggle_mute"
)

// ContextName represents a specific UI context in the application that has its own keybinds
type ContextName string

const (
	ContextGlobal    ContextName = "global"
	ContextDashboard ContextName = "dashboard"
	ContextHelp      ContextName = "help"
)

var ContextBindings = map[ContextName][]Binding{
	ContextGlobal:    globalBindings,
	ContextDashboard: dashboardBindings,
	ContextHelp:      helpBindings,
}

// KeyMap stores the mappings from actions to key sequences for each context
type KeyMap struct {
	Primary   string
	Secondary string // Optional alternative key
	Help      string // Description for help screen
}

// Binding maps an action to its keys and help text
type Binding struct {
	Action Action
	KeyMap KeyMap
}

// globalBindings contains key bindings that work across all views
var globalBindings = []Binding{
	{
		Action: ActionQuit,
		KeyMap: KeyMap{
			Primary:   "ctrl+c",
			Secondary: "q",
			Help:      "Quit application",
		},
	},
	{
		Action: ActionToggleHelp,
		KeyMap: KeyMap{
			Primary: "ctrl+h",
			Help:    "Toggle help screen",
		},
	},
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary: "esc",
			Help:    "Close the help screen",
		},
	},
}

// dashboardBindings control the mounted player
var dashboardBindings = []Binding{
	{
		Action: ActionTogglePlay,
		KeyMap: KeyMap{
			Primary:   " ",
			Secondary: "p",
			Help:      "Toggle play/pause",
		},
	},
	{
		Action: ActionSwitchMedia,
		KeyMap: KeyMap{
			Primary: "m",
			Help:    "Switch between the primary and alternate entry",
		},
	},
	{
		Action: ActionSeekBack,
		KeyMap: KeyMap{
			Primary: "left",
			Help:    "Seek back 5 seconds",
		},
	},
	{
		Action: ActionSeekBackPause,
		KeyMap: KeyMap{
			Primary: "shift+left",
			Help:    "Seek back 5 seconds and pause",
		},
	},
	{
		Action: ActionToggleMute,
		KeyMap: KeyMap{
			Primary: "u",
			Help:    "Toggle mute on the raw player instance",
		},
	},
}

// helpBindings contains key bindings specific to the help view
var helpBindings = []Binding{
	{
		Action: ActionMoveUp,
		KeyMap: KeyMap{
			Primary:   "up",
			Secondary: "k",
			Help:      "Scroll up",
		},
	},
	{
		Action: ActionMoveDown,
		KeyMap: KeyMap{
			Primary:   "down",
			Secondary: "j",
			Help:      "Scroll down",
		},
	},
}

// GetActionKey returns the primary key for an action
func GetActionKey(action Action, bindings []Binding) string {
	for _, binding := range bindings {
		if binding.Action == action {
			return binding.KeyMap.Primary
		}
	}
	return ""
}

// GetActionByKey returns just the action for a given key, or an empty Action if not found
func GetActionByKey(keyMsg tea.KeyMsg, name ContextName) Action {
	if bindings, exists := ContextBindings[name]; exists {
		key := keyMsg.String()
		for _, binding := range bindings {
			if binding.KeyMap.Primary == key || binding.KeyMap.Secondary == key {
				return binding.Action
			}
		}
	}
	return ""
}

// DisplayKey returns a printable name for a key
func DisplayKey(key string) string {
	if key == " " {
		return "space"
	}
	return key
}

// FormatKeyHelp formats a key binding for display in help text
func FormatKeyHelp(binding Binding) string {
	if binding.KeyMap.Secondary != "" {
		return DisplayKey(binding.KeyMap.Primary) + "/" + DisplayKey(binding.KeyMap.Secondary) + ": " + binding.KeyMap.Help
	}
	return DisplayKey(binding.KeyMap.Primary) + ": " + binding.KeyMap.Help
}
