package engine

import (
	"context"
	"strings"
	"time"

	"murmur/log"
)

// Engine drives one complete utterance through pass 1, the escalation
// policy and, when escalated, a timeout-bounded correction pass.
type Engine struct {
	pass1  Transcriber
	pass2  Transcriber // nil disables escalation entirely
	policy Policy
	cfg    PolicyConfig

	// OnState, when set, observes intermediate session states.
	OnState func(SessionState)
}

func New(pass1, pass2 Transcriber, cfg PolicyConfig) *Engine {
	return &Engine{pass1: pass1, pass2: pass2, policy: NewPolicy(cfg), cfg: cfg}
}

func (e *Engine) setState(s SessionState) {
	if e.OnState != nil {
		e.OnState(s)
	}
}

// TranscribeUtterance runs pass 1 on the calling goroutine; a pass-1 error
// is fatal to the whole call and propagates unmodified. When the policy
// escalates and a pass-2 transcriber is configured, the correction runs on
// one detached worker bounded by the configured timeout; on timeout the
// commit falls back to the pass-1 text, while a pass-2 error propagates
// exactly like a pass-1 error would.
func (e *Engine) TranscribeUtterance(ctx context.Context, clip Clip, hotwords []string, forceHighPrecision bool) (CommitResult, error) {
	e.setState(StateListening)
	pass1, err := e.pass1.Transcribe(ctx, clip, hotwords)
	if err != nil {
		return CommitResult{}, err
	}
	e.setState(StateEndDetected)

	sctx := SessionContext{Hotwords: hotwords, ForceHighPrecision: forceHighPrecision}
	decision := e.policy.Evaluate(pass1, sctx)
	log.Decision(decision.RunPass2, decision.Reasons)

	var pass2 *Result
	if decision.RunPass2 && e.pass2 != nil {
		e.setState(StateCorrecting)
		pass2, err = runPass2(ctx, e.pass2, clip, hotwords, e.cfg.Pass2Timeout(e.pass2.Remote()))
		if err != nil {
			return CommitResult{}, err
		}
	}

	e.setState(StateCommit)
	return CommitResult{
		State:    StateCommit,
		Text:     chooseText(pass1, pass2),
		Pass1:    pass1,
		Pass2:    pass2,
		Decision: decision,
	}, nil
}

// chooseText prefers the corrected text when pass 2 finished in time and
// produced something non-blank; pass-1 text is used verbatim otherwise.
func chooseText(pass1 Result, pass2 *Result) string {
	if pass2 != nil && strings.TrimSpace(pass2.Text) != "" {
		return pass2.Text
	}
	return pass1.Text
}

type pass2Outcome struct {
	result Result
	err    error
}

// runPass2 waits on a single detached worker for at most timeout. On
// timeout the worker context is cancelled to ask it to stop, but the
// underlying call may not be interruptible: the worker is left to finish
// on its own and its eventual result is discarded. A nil, nil return
// means the deadline elapsed; a non-positive timeout is an immediate
// deadline and never spawns the worker.
func runPass2(ctx context.Context, t Transcriber, clip Clip, hotwords []string, timeout time.Duration) (*Result, error) {
	if timeout <= 0 {
		log.Pass2Timeout(t.Name(), timeout)
		return nil, nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so an abandoned worker can deliver and exit.
	done := make(chan pass2Outcome, 1)
	start := time.Now()
	go func() {
		r, err := t.Transcribe(workerCtx, clip, hotwords)
		done <- pass2Outcome{result: r, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		log.Pass2Done(t.Name(), time.Since(start))
		return &out.result, nil
	case <-timer.C:
		log.Pass2Timeout(t.Name(), timeout)
		return nil, nil
	}
}
