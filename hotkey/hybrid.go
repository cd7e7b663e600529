package hotkey

import (
	"sync/atomic"
	"time"
)

type Mode string

const (
	ModePTT    Mode = "ptt"
	ModeToggle Mode = "toggle"
)

// StartEvent signals that a new recording should start.
type StartEvent struct {
	Mode Mode
}

// Hybrid layers tap-to-toggle and hold-to-talk on one key combination.
// A press always starts recording; whether the press was a tap or a
// hold only decides how recording stops.
type Hybrid struct {
	startCh chan StartEvent
	stopCh  chan struct{}
	toggled atomic.Bool
}

// NewHybrid builds a controller on top of a registered Hotkey.
// longPress is the hold threshold separating PTT from a tap.
func NewHybrid(hk Hotkey, longPress time.Duration) *Hybrid {
	h := &Hybrid{
		startCh: make(chan StartEvent, 1),
		stopCh:  make(chan struct{}, 1),
	}
	go h.run(hk, longPress)
	return h
}

// Start signals when to begin recording.
func (h *Hybrid) Start() <-chan StartEvent { return h.startCh }

// StopChan signals when to stop, for both PTT and toggle recordings.
func (h *Hybrid) StopChan() <-chan struct{} { return h.stopCh }

// IsToggle reports whether the current recording was started by a tap.
// Toggle recordings are eligible for silence auto-stop; a held key is
// an explicit instruction to keep listening.
func (h *Hybrid) IsToggle() bool { return h.toggled.Load() }

// NotifyStopped tells the controller recording ended for another reason
// (silence auto-stop), so the next press starts fresh.
func (h *Hybrid) NotifyStopped() { h.toggled.Store(false) }

func (h *Hybrid) run(hk Hotkey, longPress time.Duration) {
	for {
		<-hk.Keydown()

		if h.toggled.Load() {
			// Press during a toggled recording stops it on release.
			<-hk.Keyup()
			h.toggled.Store(false)
			select {
			case h.stopCh <- struct{}{}:
			default:
			}
			continue
		}

		// Start immediately; the tap/hold distinction only matters for
		// how the recording ends.
		h.startCh <- StartEvent{Mode: ModeToggle}
		timer := time.NewTimer(longPress)
		select {
		case <-timer.C:
			// Held past the threshold: stop on release.
			<-hk.Keyup()
			select {
			case h.stopCh <- struct{}{}:
			default:
			}
		case <-hk.Keyup():
			// Tap: stays on until the next press or an auto-stop.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			h.toggled.Store(true)
		}
	}
}
