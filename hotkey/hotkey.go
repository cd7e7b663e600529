package hotkey

import (
	"fmt"
	"strings"
)

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// Combo is a parsed key combination like "ctrl+shift+space". The final
// token is the key; everything before it must be a modifier.
type Combo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Key   string // "space" or a single letter
}

func ParseCombo(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 || parts[0] == "" {
		return Combo{}, fmt.Errorf("empty hotkey combo")
	}
	for _, mod := range parts[:len(parts)-1] {
		switch strings.TrimSpace(mod) {
		case "ctrl", "control":
			c.Ctrl = true
		case "shift":
			c.Shift = true
		case "alt":
			c.Alt = true
		default:
			return Combo{}, fmt.Errorf("unknown modifier %q in %q", mod, s)
		}
	}
	key := strings.TrimSpace(parts[len(parts)-1])
	if key != "space" && (len(key) != 1 || key[0] < 'a' || key[0] > 'z') {
		return Combo{}, fmt.Errorf("unsupported key %q in %q", key, s)
	}
	if !c.Ctrl && !c.Shift && !c.Alt {
		return Combo{}, fmt.Errorf("combo %q needs at least one modifier", s)
	}
	c.Key = key
	return c, nil
}

func (c Combo) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	return strings.Join(append(parts, c.Key), "+")
}
