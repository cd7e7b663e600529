package commit

import (
	"fmt"
	"os"
	"strings"

	cb "github.com/atotto/clipboard"

	"murmur/log"
)

// Result describes what happened to one committed utterance.
type Result struct {
	Backend   string
	Committed bool
	Detail    string
}

// Committer pushes final text to the desktop.
type Committer interface {
	Name() string
	Commit(text string) (Result, error)
}

// Resolve maps a backend name to a committer. "auto" prefers paste and
// falls back to clipboard when no key injection is available.
func Resolve(backend string) (Committer, error) {
	switch backend {
	case "none":
		return Noop{}, nil
	case "stdout":
		return Stdout{}, nil
	case "clipboard":
		return Clipboard{}, nil
	case "paste":
		return NewPaste()
	case "auto", "":
		if p, err := NewPaste(); err == nil {
			return p, nil
		}
		return Clipboard{}, nil
	default:
		return nil, fmt.Errorf("unknown commit backend %q", backend)
	}
}

// Noop drops the text. Useful for benchmarks and JSON-only runs.
type Noop struct{}

func (Noop) Name() string { return "none" }

func (Noop) Commit(text string) (Result, error) {
	log.CommitEvent("none", false, "discarded")
	return Result{Backend: "none"}, nil
}

// Stdout prints the text to standard output, one utterance per line.
type Stdout struct{}

func (Stdout) Name() string { return "stdout" }

func (Stdout) Commit(text string) (Result, error) {
	fmt.Fprintln(os.Stdout, strings.TrimRight(text, "\n"))
	log.CommitEvent("stdout", true, "")
	return Result{Backend: "stdout", Committed: true}, nil
}

// Clipboard replaces the system clipboard with the text.
type Clipboard struct{}

func (Clipboard) Name() string { return "clipboard" }

func (Clipboard) Commit(text string) (Result, error) {
	if err := cb.WriteAll(text); err != nil {
		log.CommitEvent("clipboard", false, err.Error())
		return Result{Backend: "clipboard", Detail: err.Error()}, err
	}
	log.CommitEvent("clipboard", true, "")
	return Result{Backend: "clipboard", Committed: true}, nil
}
