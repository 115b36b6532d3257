// internal/ui/keys.go
package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the overlay key bindings. Alt stands in for the Option
// modifier of the desktop app.
type KeyMap struct {
	TogglePlay    key.Binding
	Reset         key.Binding
	JumpBack      key.Binding
	ToggleOverlay key.Binding
	ToggleMirror  key.Binding
	ToggleGuide   key.Binding
	Accept        key.Binding
	Dismiss       key.Binding
	Listen        key.Binding
	History       key.Binding
	FollowUp      key.Binding
	Faster        key.Binding
	Slower        key.Binding
	FontUp        key.Binding
	FontDown      key.Binding
	Command       key.Binding
	Submit        key.Binding
	Help          key.Binding
	Back          key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		TogglePlay: key.NewBinding(
			key.WithKeys("alt+p"),
			key.WithHelp("alt+p", "play / pause"),
		),
		Reset: key.NewBinding(
			key.WithKeys("alt+r"),
			key.WithHelp("alt+r", "reset to top"),
		),
		JumpBack: key.NewBinding(
			key.WithKeys("alt+j"),
			key.WithHelp("alt+j", "jump back"),
		),
		ToggleOverlay: key.NewBinding(
			key.WithKeys("alt+h"),
			key.WithHelp("alt+h", "hide / show overlay"),
		),
		ToggleMirror: key.NewBinding(
			key.WithKeys("alt+m"),
			key.WithHelp("alt+m", "mirror mode"),
		),
		ToggleGuide: key.NewBinding(
			key.WithKeys("alt+g"),
			key.WithHelp("alt+g", "guide line"),
		),
		Accept: key.NewBinding(
			key.WithKeys("alt+a"),
			key.WithHelp("alt+a", "accept suggestion"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("alt+d"),
			key.WithHelp("alt+d", "dismiss suggestion"),
		),
		Listen: key.NewBinding(
			key.WithKeys("alt+l"),
			key.WithHelp("alt+l", "start / stop listening"),
		),
		History: key.NewBinding(
			key.WithKeys("alt+s"),
			key.WithHelp("alt+s", "suggestion history"),
		),
		FollowUp: key.NewBinding(
			key.WithKeys("alt+1", "alt+2", "alt+3"),
			key.WithHelp("alt+1-3", "add follow-up to script"),
		),
		Faster: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "slower"),
		),
		FontUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "larger font"),
		),
		FontDown: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "smaller font"),
		),
		Command: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "command line"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run command or ask"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "f1"),
			key.WithHelp("? / F1", "toggle help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay or input"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// Bindings lists the bindings shown in help, in display order
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{
		k.TogglePlay, k.Reset, k.JumpBack, k.Faster, k.Slower,
		k.FontUp, k.FontDown, k.ToggleOverlay, k.ToggleMirror, k.ToggleGuide,
		k.Accept, k.Dismiss, k.FollowUp, k.Listen, k.History,
		k.Command, k.Submit, k.Help, k.Back, k.Quit,
	}
}

// followUpIndex returns the follow-up slot for an alt+N key, or -1
func followUpIndex(s string) int {
	switch s {
	case "alt+1":
		return 0
	case "alt+2":
		return 1
	case "alt+3":
		return 2
	}
	return -1
}
