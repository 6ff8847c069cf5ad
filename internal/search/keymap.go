package search

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Action represents a keyboard action that can be triggered by key bindings.
type Action int

const (
	// ActionNone represents no action (used when a key doesn't match any binding).
	ActionNone Action = iota

	// Cursor movement within the input
	ActionCharacterForward  // Right, Ctrl+F
	ActionCharacterBackward // Left, Ctrl+B
	ActionWordForward       // Alt+F, Alt+Right
	ActionWordBackward      // Alt+B, Alt+Left
	ActionLineStart         // Home, Ctrl+A
	ActionLineEnd           // End, Ctrl+E

	// Deletion
	ActionDeleteCharacterBackward // Backspace, Ctrl+H
	ActionDeleteCharacterForward  // Delete, Ctrl+D
	ActionDeleteWordBackward      // Ctrl+W, Alt+Backspace
	ActionDeleteBeforeCursor      // Ctrl+U
	ActionDeleteAfterCursor       // Ctrl+K

	// Suggestion navigation
	ActionCursorUp   // Up, Ctrl+P
	ActionCursorDown // Down, Ctrl+N
	ActionComplete   // Tab

	// Special actions
	ActionSubmit    // Enter: select the focused suggestion or submit the query
	ActionDismiss   // Escape: hide the suggestion list
	ActionInterrupt // Ctrl+C
	ActionClear     // Ctrl+L: empty the input
	ActionPaste     // Ctrl+V
)

// String returns the string representation of an Action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionCharacterForward:
		return "CharacterForward"
	case ActionCharacterBackward:
		return "CharacterBackward"
	case ActionWordForward:
		return "WordForward"
	case ActionWordBackward:
		return "WordBackward"
	case ActionLineStart:
		return "LineStart"
	case ActionLineEnd:
		return "LineEnd"
	case ActionDeleteCharacterBackward:
		return "DeleteCharacterBackward"
	case ActionDeleteCharacterForward:
		return "DeleteCharacterForward"
	case ActionDeleteWordBackward:
		return "DeleteWordBackward"
	case ActionDeleteBeforeCursor:
		return "DeleteBeforeCursor"
	case ActionDeleteAfterCursor:
		return "DeleteAfterCursor"
	case ActionCursorUp:
		return "CursorUp"
	case ActionCursorDown:
		return "CursorDown"
	case ActionComplete:
		return "Complete"
	case ActionSubmit:
		return "Submit"
	case ActionDismiss:
		return "Dismiss"
	case ActionInterrupt:
		return "Interrupt"
	case ActionClear:
		return "Clear"
	case ActionPaste:
		return "Paste"
	default:
		return "Unknown"
	}
}

// navigationKey maps suggestion navigation actions to controller keys.
func (a Action) navigationKey() Key {
	switch a {
	case ActionCursorUp:
		return KeyUp
	case ActionCursorDown:
		return KeyDown
	case ActionComplete:
		return KeyTab
	case ActionSubmit:
		return KeyEnter
	default:
		return KeyNone
	}
}

// KeyBinding maps a set of key strings to an action.
type KeyBinding struct {
	// Keys holds tea.KeyMsg string representations.
	Keys   []string
	Action Action
}

// KeyMap holds the key bindings of the search box.
type KeyMap struct {
	bindings []KeyBinding
	lookup   map[string]Action
}

// NewKeyMap creates a new KeyMap with the given bindings.
func NewKeyMap(bindings []KeyBinding) *KeyMap {
	km := &KeyMap{bindings: bindings}
	km.rebuildLookup()
	return km
}

func (km *KeyMap) rebuildLookup() {
	km.lookup = make(map[string]Action)
	for _, b := range km.bindings {
		for _, key := range b.Keys {
			km.lookup[key] = b.Action
		}
	}
}

// DefaultKeyMap returns a KeyMap with Emacs-style editing bindings.
func DefaultKeyMap() *KeyMap {
	return NewKeyMap([]KeyBinding{
		{Keys: []string{"right", "ctrl+f"}, Action: ActionCharacterForward},
		{Keys: []string{"left", "ctrl+b"}, Action: ActionCharacterBackward},
		{Keys: []string{"alt+right", "ctrl+right", "alt+f"}, Action: ActionWordForward},
		{Keys: []string{"alt+left", "ctrl+left", "alt+b"}, Action: ActionWordBackward},
		{Keys: []string{"home", "ctrl+a"}, Action: ActionLineStart},
		{Keys: []string{"end", "ctrl+e"}, Action: ActionLineEnd},

		{Keys: []string{"backspace", "ctrl+h"}, Action: ActionDeleteCharacterBackward},
		{Keys: []string{"delete", "ctrl+d"}, Action: ActionDeleteCharacterForward},
		{Keys: []string{"ctrl+w", "alt+backspace"}, Action: ActionDeleteWordBackward},
		{Keys: []string{"ctrl+u"}, Action: ActionDeleteBeforeCursor},
		{Keys: []string{"ctrl+k"}, Action: ActionDeleteAfterCursor},

		{Keys: []string{"up", "ctrl+p"}, Action: ActionCursorUp},
		{Keys: []string{"down", "ctrl+n"}, Action: ActionCursorDown},
		{Keys: []string{"tab"}, Action: ActionComplete},

		{Keys: []string{"enter"}, Action: ActionSubmit},
		{Keys: []string{"esc"}, Action: ActionDismiss},
		{Keys: []string{"ctrl+c"}, Action: ActionInterrupt},
		{Keys: []string{"ctrl+l"}, Action: ActionClear},
		{Keys: []string{"ctrl+v"}, Action: ActionPaste},
	})
}

// Lookup finds the action for the given key message.
// Returns ActionNone if no binding matches.
func (km *KeyMap) Lookup(msg tea.KeyMsg) Action {
	if action, ok := km.lookup[msg.String()]; ok {
		return action
	}
	return ActionNone
}

// SetBinding adds a binding, replacing any existing binding for the same action.
func (km *KeyMap) SetBinding(binding KeyBinding) {
	for i, b := range km.bindings {
		if b.Action == binding.Action {
			km.bindings[i] = binding
			km.rebuildLookup()
			return
		}
	}
	km.bindings = append(km.bindings, binding)
	km.rebuildLookup()
}

// ParseAction returns the action whose String form matches name, ignoring
// case. ActionNone is never matched.
func ParseAction(name string) (Action, bool) {
	for a := ActionCharacterForward; a <= ActionPaste; a++ {
		if strings.EqualFold(a.String(), name) {
			return a, true
		}
	}
	return ActionNone, false
}

// Apply rebinds actions by name. Unknown actions and empty key lists are
// reported together and leave their defaults in place.
func (km *KeyMap) Apply(overrides map[string][]string) error {
	var errs []error
	for name, keys := range overrides {
		action, ok := ParseAction(name)
		if !ok {
			errs = append(errs, fmt.Errorf("unknown action %q", name))
			continue
		}
		if len(keys) == 0 {
			errs = append(errs, fmt.Errorf("action %q has no keys", name))
			continue
		}
		km.SetBinding(KeyBinding{Keys: keys, Action: action})
	}
	return errors.Join(errs...)
}

// Bindings returns a copy of all bindings in the keymap.
func (km *KeyMap) Bindings() []KeyBinding {
	result := make([]KeyBinding, len(km.bindings))
	for i, b := range km.bindings {
		keys := make([]string, len(b.Keys))
		copy(keys, b.Keys)
		result[i] = KeyBinding{Keys: keys, Action: b.Action}
	}
	return result
}
