package notify

import (
	"fmt"
	"os"
	"os/exec"

	"murmur/log"
)

// Notification is a short desktop-level status message, e.g. "correcting"
// or the committed text preview.
type Notification struct {
	Title   string
	Body    string
	Urgency string // low, normal or critical
}

type Notifier interface {
	Name() string
	Notify(n Notification) error
}

// Resolve maps a backend name to a notifier. "auto" uses notify-send
// when present and falls back to stderr.
func Resolve(backend string) (Notifier, error) {
	switch backend {
	case "none":
		return Noop{}, nil
	case "stderr":
		return Stderr{}, nil
	case "notify-send":
		return NotifySend{}, nil
	case "auto", "":
		if _, err := exec.LookPath("notify-send"); err == nil {
			return NotifySend{}, nil
		}
		return Stderr{}, nil
	default:
		return nil, fmt.Errorf("unknown notify backend %q", backend)
	}
}

func urgency(u string) string {
	switch u {
	case "low", "critical":
		return u
	default:
		return "normal"
	}
}

type Noop struct{}

func (Noop) Name() string              { return "none" }
func (Noop) Notify(Notification) error { return nil }

// Stderr writes notifications to standard error so they never mix with
// committed text on stdout.
type Stderr struct{}

func (Stderr) Name() string { return "stderr" }

func (Stderr) Notify(n Notification) error {
	if n.Body != "" {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", urgency(n.Urgency), n.Title, n.Body)
	} else {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", urgency(n.Urgency), n.Title)
	}
	return nil
}

// NotifySend shells out to the freedesktop notify-send tool.
type NotifySend struct{}

func (NotifySend) Name() string { return "notify-send" }

func (NotifySend) Notify(n Notification) error {
	args := []string{"-a", "murmur", "-u", urgency(n.Urgency), n.Title}
	if n.Body != "" {
		args = append(args, n.Body)
	}
	if err := exec.Command("notify-send", args...).Run(); err != nil {
		log.Warnf("notify-send failed: %v", err)
		return err
	}
	return nil
}
