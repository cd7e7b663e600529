package transcriber

import (
	"context"
	"fmt"

	"murmur/encoder"
	"murmur/engine"
)

// BufferedStream adapts a whole-utterance transcriber to the streaming
// session interface. It produces no partial updates: chunks accumulate
// until End, which encodes the buffer and transcribes it in one shot.
// Chunks must arrive in strictly increasing index order.
type BufferedStream struct {
	t engine.Transcriber

	started  bool
	hotwords []string
	samples  []int16
	lastIdx  int
}

func NewBufferedStream(t engine.Transcriber) *BufferedStream {
	return &BufferedStream{t: t}
}

func (s *BufferedStream) Start(hotwords []string) error {
	s.started = true
	s.hotwords = hotwords
	s.samples = s.samples[:0]
	s.lastIdx = -1
	return nil
}

func (s *BufferedStream) PushChunk(samples []int16, isFinal bool, chunkIndex int) (*engine.StreamUpdate, error) {
	if !s.started {
		return nil, fmt.Errorf("buffered stream: push before start")
	}
	if chunkIndex <= s.lastIdx {
		return nil, fmt.Errorf("buffered stream: chunk %d arrived after %d", chunkIndex, s.lastIdx)
	}
	s.lastIdx = chunkIndex
	s.samples = append(s.samples, samples...)
	return nil, nil
}

func (s *BufferedStream) End() (engine.Result, error) {
	if !s.started {
		return engine.Result{}, fmt.Errorf("buffered stream: end before start")
	}
	s.started = false

	if len(s.samples) == 0 {
		return engine.Result{Model: s.t.Name()}, nil
	}

	data, err := encoder.EncodeFLAC(s.samples)
	if err != nil {
		return engine.Result{}, fmt.Errorf("buffered stream: %w", err)
	}
	return s.t.Transcribe(context.Background(), engine.Clip{Format: "flac", Data: data}, s.hotwords)
}
