package hotkey

import "testing"

func TestParseCombo(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want Combo
	}{
		{"ctrl+shift+space", Combo{Ctrl: true, Shift: true, Key: "space"}},
		{"ctrl+d", Combo{Ctrl: true, Key: "d"}},
		{"alt+space", Combo{Alt: true, Key: "space"}},
		{"CTRL+Shift+Space", Combo{Ctrl: true, Shift: true, Key: "space"}},
		{" ctrl + shift + m ", Combo{Ctrl: true, Shift: true, Key: "m"}},
	} {
		got, err := ParseCombo(tt.in)
		if err != nil {
			t.Errorf("ParseCombo(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCombo(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseComboRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"space",       // no modifier
		"hyper+space", // unknown modifier
		"ctrl+escape", // unsupported key
		"ctrl+shift+", // empty key
	} {
		if _, err := ParseCombo(in); err == nil {
			t.Errorf("ParseCombo(%q) = nil error, want rejection", in)
		}
	}
}

func TestComboString(t *testing.T) {
	c := Combo{Ctrl: true, Shift: true, Key: "space"}
	if got := c.String(); got != "ctrl+shift+space" {
		t.Errorf("String() = %q", got)
	}
}
