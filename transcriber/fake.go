package transcriber

import (
	"context"
	"time"

	"murmur/engine"
)

// Fake is a scripted transcriber for benchmarks and tests.
type Fake struct {
	FakeName   string
	Text       string
	Confidence *float64
	Err        error
	Delay      time.Duration
	RemoteFlag bool

	Calls int
}

func (f *Fake) Name() string {
	if f.FakeName != "" {
		return f.FakeName
	}
	return "fake"
}

func (f *Fake) Remote() bool { return f.RemoteFlag }

func (f *Fake) Transcribe(ctx context.Context, clip engine.Clip, hotwords []string) (engine.Result, error) {
	f.Calls++
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return engine.Result{}, ctx.Err()
		}
	}
	if f.Err != nil {
		return engine.Result{}, f.Err
	}
	return engine.Result{
		Text:         f.Text,
		Confidence:   f.Confidence,
		EnglishRatio: engine.EnglishRatio(f.Text),
		Model:        f.Name(),
	}, nil
}

// FakeStream emits one scripted partial per chunk and the last output
// as the final result.
type FakeStream struct {
	Outputs    []string
	Confidence *float64

	started bool
	pushed  int
}

func (f *FakeStream) Start(hotwords []string) error {
	f.started = true
	f.pushed = 0
	return nil
}

func (f *FakeStream) PushChunk(samples []int16, isFinal bool, chunkIndex int) (*engine.StreamUpdate, error) {
	var text string
	if f.pushed < len(f.Outputs) {
		text = f.Outputs[f.pushed]
	}
	f.pushed++
	if text == "" {
		return nil, nil
	}
	return &engine.StreamUpdate{Text: text, IsFinal: isFinal, ChunkIndex: chunkIndex}, nil
}

func (f *FakeStream) End() (engine.Result, error) {
	f.started = false
	if f.pushed == 0 || len(f.Outputs) == 0 {
		return engine.Result{Model: "fake-stream"}, nil
	}
	last := f.Outputs[min(f.pushed, len(f.Outputs))-1]
	return engine.Result{
		Text:         last,
		Confidence:   f.Confidence,
		EnglishRatio: engine.EnglishRatio(last),
		Model:        "fake-stream",
	}, nil
}
