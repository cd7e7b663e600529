package engine

import (
	"context"
	"unicode"
)

// SessionState tracks one dictation session from capture to commit.
// The public entry points only ever return the terminal commit state;
// intermediate states are surfaced through the OnState callback.
type SessionState string

const (
	StateIdle        SessionState = "idle"
	StateListening   SessionState = "listening"
	StateStreaming   SessionState = "streaming"
	StateEndDetected SessionState = "end_detected"
	StateCorrecting  SessionState = "correcting"
	StateCommit      SessionState = "commit"
)

// Clip is a self-contained encoded audio asset handed to a Transcriber.
type Clip struct {
	Format string // "wav" or "flac"
	Data   []byte
}

// Result is the outcome of one recognition call, immutable once produced.
// Confidence is nil when the engine does not estimate one.
type Result struct {
	Text         string
	Confidence   *float64
	EnglishRatio float64
	Model        string
	Metadata     map[string]string
}

// SessionContext carries the caller-supplied knobs for one utterance.
type SessionContext struct {
	Hotwords           []string
	ForceHighPrecision bool
}

// Decision reports whether the correction pass should run and why.
// RunPass2 is true iff Reasons is non-empty.
type Decision struct {
	RunPass2 bool
	Reasons  []string
}

// CommitResult is the terminal outcome of one utterance or streaming run.
type CommitResult struct {
	State    SessionState
	Text     string
	Pass1    Result
	Pass2    *Result // nil unless pass 2 completed within its deadline
	Decision Decision
}

// StreamUpdate is the incremental text surfaced for one pushed chunk.
type StreamUpdate struct {
	Text       string
	IsFinal    bool
	ChunkIndex int
	Metadata   map[string]string
}

// RealtimeRunResult bundles the per-chunk updates with the final commit.
type RealtimeRunResult struct {
	Updates []StreamUpdate
	Commit  CommitResult
}

// Transcriber is a whole-utterance recognition engine. Remote reports
// whether calls leave the machine; the orchestrator uses it only to pick
// which pass-2 timeout applies. Implementations must not retry internally.
type Transcriber interface {
	Name() string
	Remote() bool
	Transcribe(ctx context.Context, clip Clip, hotwords []string) (Result, error)
}

// StreamingSession is a stateful chunked pass-1 session. Chunks must be
// pushed in index order by a single caller at a time; a nil update means
// no incremental text surfaced for that chunk and is not an error.
type StreamingSession interface {
	Start(hotwords []string) error
	PushChunk(samples []int16, isFinal bool, chunkIndex int) (*StreamUpdate, error)
	End() (Result, error)
}

// EnglishRatio returns the fraction of alphabetic runes that are Latin
// letters. Zero when the text has no alphabetic runes at all.
func EnglishRatio(text string) float64 {
	var latin, alpha int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		alpha++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			latin++
		}
	}
	if alpha == 0 {
		return 0
	}
	return float64(latin) / float64(alpha)
}

// Float builds an optional confidence value.
func Float(v float64) *float64 { return &v }
