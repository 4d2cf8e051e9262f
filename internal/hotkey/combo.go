package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmpty is returned by Parse for an empty hotkey string.
var ErrEmpty = errors.New("empty hotkey")

// Combo is a parsed hotkey: a modifier set plus at most one terminal key.
type Combo struct {
	Mods Modifier
	Key  string // canonical terminal token, or "" for a modifier-only combo
}

// String renders the canonical form: modifiers in Ctrl, Alt, Shift, Cmd
// order followed by the terminal token, joined with "+".
func (c Combo) String() string {
	tokens := c.Mods.Tokens()
	if c.Key != "" {
		tokens = append(tokens, c.Key)
	}
	return strings.Join(tokens, "+")
}

// HasKey reports whether the combo ends in a terminal key.
func (c Combo) HasKey() bool { return c.Key != "" }

// Parse parses a canonical hotkey string. Modifier tokens must appear in
// canonical order without repeats, and the terminal token, if any, must be
// last.
func Parse(s string) (Combo, error) {
	if s == "" {
		return Combo{}, ErrEmpty
	}
	var c Combo
	parts := strings.Split(s, "+")
	last := -1
	for i, part := range parts {
		if part == "" {
			return Combo{}, fmt.Errorf("hotkey %q: empty token", s)
		}
		if mod, idx := modifierByToken(part); mod != 0 {
			if c.Key != "" {
				return Combo{}, fmt.Errorf("hotkey %q: modifier %s after key", s, part)
			}
			if c.Mods.Has(mod) {
				return Combo{}, fmt.Errorf("hotkey %q: repeated modifier %s", s, part)
			}
			if idx < last {
				return Combo{}, fmt.Errorf("hotkey %q: modifier %s out of order", s, part)
			}
			last = idx
			c.Mods |= mod
			continue
		}
		if i != len(parts)-1 {
			return Combo{}, fmt.Errorf("hotkey %q: unknown modifier %q", s, part)
		}
		if !isTerminalToken(part) {
			return Combo{}, fmt.Errorf("hotkey %q: invalid key %q", s, part)
		}
		c.Key = part
	}
	return c, nil
}

// Valid reports whether s is empty or a canonical hotkey string.
func Valid(s string) bool {
	if s == "" {
		return true
	}
	_, err := Parse(s)
	return err == nil
}

// Normalize accepts a hand-written hotkey ("ctrl+shift+v", "Shift + Control +
// Space") and returns its canonical form. Tokens are matched with the same
// aliases as Classify.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	var c Combo
	parts := strings.Split(s, "+")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		cl := Classify(part)
		switch cl.Kind {
		case KindModifier:
			c.Mods |= cl.Modifier
		case KindTerminal:
			if i != len(parts)-1 {
				return "", fmt.Errorf("hotkey %q: key %q must be last", s, part)
			}
			c.Key = cl.Token
		default:
			return "", fmt.Errorf("hotkey %q: unknown token %q", s, part)
		}
	}
	return c.String(), nil
}

func modifierByToken(tok string) (Modifier, int) {
	for i, mod := range modifierOrder {
		if mod.Token() == tok {
			return mod, i
		}
	}
	return 0, -1
}

func isTerminalToken(tok string) bool {
	if tok == SpaceToken {
		return true
	}
	if len(tok) != 1 {
		return false
	}
	c := tok[0]
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
