package commit

import (
	"runtime"
	"time"

	cb "github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"

	"murmur/log"
)

// Paste copies the text to the clipboard and injects the platform paste
// chord into the focused window.
type Paste struct {
	kb keybd_event.KeyBonding
}

func NewPaste() (*Paste, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, err
	}
	// The linux uinput device needs a moment before the first injected
	// event is picked up.
	if runtime.GOOS == "linux" {
		time.Sleep(2 * time.Second)
	}
	return &Paste{kb: kb}, nil
}

func (p *Paste) Name() string { return "paste" }

func (p *Paste) Commit(text string) (Result, error) {
	if err := cb.WriteAll(text); err != nil {
		log.CommitEvent("paste", false, err.Error())
		return Result{Backend: "paste", Detail: err.Error()}, err
	}

	p.kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		p.kb.HasSuper(true)
	} else {
		p.kb.HasCTRL(true)
	}
	if err := p.kb.Launching(); err != nil {
		log.CommitEvent("paste", false, err.Error())
		return Result{Backend: "paste", Detail: "copied, paste chord failed: " + err.Error()}, err
	}

	log.CommitEvent("paste", true, "")
	return Result{Backend: "paste", Committed: true}, nil
}
