package notify

import "testing"

func TestResolve(t *testing.T) {
	for _, tt := range []struct {
		backend string
		name    string
	}{
		{"none", "none"},
		{"stderr", "stderr"},
		{"notify-send", "notify-send"},
	} {
		n, err := Resolve(tt.backend)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.backend, err)
		}
		if n.Name() != tt.name {
			t.Errorf("Resolve(%q).Name() = %q, want %q", tt.backend, n.Name(), tt.name)
		}
	}

	if _, err := Resolve("smoke-signals"); err == nil {
		t.Error("err = nil, want unknown backend error")
	}

	// auto always resolves to something usable
	n, err := Resolve("auto")
	if err != nil || n == nil {
		t.Fatalf("Resolve(auto) = %v, %v", n, err)
	}
}

func TestUrgencyNormalized(t *testing.T) {
	for in, want := range map[string]string{
		"low":      "low",
		"critical": "critical",
		"normal":   "normal",
		"":         "normal",
		"shouting": "normal",
	} {
		if got := urgency(in); got != want {
			t.Errorf("urgency(%q) = %q, want %q", in, got, want)
		}
	}
}
