package engine

import (
	"context"

	"murmur/encoder"
	"murmur/log"
)

// RealtimeEngine drives chunked audio through a streaming pass-1 session
// while buffering the raw samples. The correction pass has no streaming
// variant, so the buffer is re-encoded into a whole-utterance clip before
// pass 2 runs.
type RealtimeEngine struct {
	stream StreamingSession
	pass2  Transcriber
	policy Policy
	cfg    PolicyConfig

	OnState func(SessionState)
}

func NewRealtime(stream StreamingSession, pass2 Transcriber, cfg PolicyConfig) *RealtimeEngine {
	return &RealtimeEngine{stream: stream, pass2: pass2, policy: NewPolicy(cfg), cfg: cfg}
}

func (e *RealtimeEngine) setState(s SessionState) {
	if e.OnState != nil {
		e.OnState(s)
	}
}

// TranscribeChunks pushes chunks in index order, skipping empty ones, then
// evaluates the policy on the session's final result. Escalation reuses
// the utterance pass-2 path; it is skipped outright when every chunk was
// empty, because there is nothing to re-encode.
func (e *RealtimeEngine) TranscribeChunks(ctx context.Context, chunks [][]int16, hotwords []string, forceHighPrecision bool) (RealtimeRunResult, error) {
	if err := e.stream.Start(hotwords); err != nil {
		return RealtimeRunResult{}, err
	}
	e.setState(StateStreaming)

	var updates []StreamUpdate
	var buffered []int16
	for idx, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		buffered = append(buffered, chunk...)
		update, err := e.stream.PushChunk(chunk, idx == len(chunks)-1, idx)
		if err != nil {
			return RealtimeRunResult{}, err
		}
		if update != nil {
			updates = append(updates, *update)
		}
	}

	pass1, err := e.stream.End()
	if err != nil {
		return RealtimeRunResult{}, err
	}
	e.setState(StateEndDetected)

	sctx := SessionContext{Hotwords: hotwords, ForceHighPrecision: forceHighPrecision}
	decision := e.policy.Evaluate(pass1, sctx)
	log.Decision(decision.RunPass2, decision.Reasons)

	var pass2 *Result
	if decision.RunPass2 && e.pass2 != nil && len(buffered) > 0 {
		e.setState(StateCorrecting)
		clip, err := encodeBuffer(buffered)
		if err != nil {
			return RealtimeRunResult{}, err
		}
		pass2, err = runPass2(ctx, e.pass2, clip, hotwords, e.cfg.Pass2Timeout(e.pass2.Remote()))
		if err != nil {
			return RealtimeRunResult{}, err
		}
	}

	e.setState(StateCommit)
	return RealtimeRunResult{
		Updates: updates,
		Commit: CommitResult{
			State:    StateCommit,
			Text:     chooseText(pass1, pass2),
			Pass1:    pass1,
			Pass2:    pass2,
			Decision: decision,
		},
	}, nil
}

func encodeBuffer(samples []int16) (Clip, error) {
	data, err := encoder.EncodeFLAC(samples)
	if err != nil {
		return Clip{}, err
	}
	return Clip{Format: "flac", Data: data}, nil
}
