// Package hotkey turns raw key-down events into canonical global-shortcut
// strings such as "Ctrl+Shift+P".
//
// Key names follow the browser KeyboardEvent.key convention ("Control",
// "Meta", "Escape", " ", "p"), with a few common aliases accepted. Hosts that
// receive input some other way (a terminal, an OS hook) translate their
// events into these names before dispatching them.
package hotkey

import "strings"

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	Ctrl Modifier = 1 << iota
	Alt
	Shift
	Cmd
)

// modifierOrder is the canonical token order, independent of press order.
var modifierOrder = []Modifier{Ctrl, Alt, Shift, Cmd}

// Token returns the canonical token for a single modifier.
func (m Modifier) Token() string {
	switch m {
	case Ctrl:
		return "Ctrl"
	case Alt:
		return "Alt"
	case Shift:
		return "Shift"
	case Cmd:
		return "Cmd"
	}
	return ""
}

// Tokens returns the canonical tokens of every modifier in the set, in
// Ctrl, Alt, Shift, Cmd order.
func (m Modifier) Tokens() []string {
	var out []string
	for _, mod := range modifierOrder {
		if m&mod != 0 {
			out = append(out, mod.Token())
		}
	}
	return out
}

// Has reports whether mod is in the set.
func (m Modifier) Has(mod Modifier) bool { return m&mod != 0 }

// SpaceToken is the terminal token for the space bar.
const SpaceToken = "Space"

// Kind classifies a key-down event for the capture state machine.
type Kind int

const (
	KindOther Kind = iota
	KindEscape
	KindModifier
	KindTerminal
)

// Event is a single key-down.
type Event struct {
	Key string
}

// Class is the result of classifying a key name.
type Class struct {
	Kind     Kind
	Modifier Modifier // set when Kind == KindModifier
	Token    string   // canonical token when Kind == KindTerminal
}

// Classify maps a key name to its role in a hotkey. Single ASCII letters and
// digits and the space bar are terminal keys; letters are uppercased.
func Classify(key string) Class {
	switch key {
	case " ":
		return Class{Kind: KindTerminal, Token: SpaceToken}
	case "":
		return Class{Kind: KindOther}
	}
	if len(key) == 1 {
		c := key[0]
		switch {
		case c >= 'a' && c <= 'z':
			return Class{Kind: KindTerminal, Token: string(c - 'a' + 'A')}
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return Class{Kind: KindTerminal, Token: key}
		}
		return Class{Kind: KindOther}
	}
	switch strings.ToLower(key) {
	case "escape", "esc":
		return Class{Kind: KindEscape}
	case "control", "ctrl":
		return Class{Kind: KindModifier, Modifier: Ctrl}
	case "alt", "option", "altgraph":
		return Class{Kind: KindModifier, Modifier: Alt}
	case "shift":
		return Class{Kind: KindModifier, Modifier: Shift}
	case "meta", "cmd", "command", "super", "os":
		return Class{Kind: KindModifier, Modifier: Cmd}
	case "space", "spacebar":
		return Class{Kind: KindTerminal, Token: SpaceToken}
	}
	return Class{Kind: KindOther}
}
