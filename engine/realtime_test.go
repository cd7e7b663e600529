package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeStream emits one scripted partial per pushed chunk and a scripted
// final result from End.
type fakeStream struct {
	partials  []string
	finalText string
	finalConf *float64

	started bool
	pushed  int
	lastIdx int
}

func (f *fakeStream) Start(hotwords []string) error {
	f.started = true
	f.pushed = 0
	f.lastIdx = -1
	return nil
}

func (f *fakeStream) PushChunk(samples []int16, isFinal bool, chunkIndex int) (*StreamUpdate, error) {
	if !f.started {
		return nil, errors.New("push before start")
	}
	if chunkIndex <= f.lastIdx {
		return nil, fmt.Errorf("chunk %d pushed after %d", chunkIndex, f.lastIdx)
	}
	f.lastIdx = chunkIndex

	var text string
	if f.pushed < len(f.partials) {
		text = f.partials[f.pushed]
	}
	f.pushed++
	if text == "" {
		return nil, nil
	}
	return &StreamUpdate{Text: text, IsFinal: isFinal, ChunkIndex: chunkIndex}, nil
}

func (f *fakeStream) End() (Result, error) {
	if !f.started {
		return Result{}, errors.New("end before start")
	}
	f.started = false
	if f.pushed == 0 {
		return Result{Model: "fake-stream"}, nil
	}
	return Result{Text: f.finalText, Confidence: f.finalConf, Model: "fake-stream"}, nil
}

func TestRealtimeForcedEscalation(t *testing.T) {
	stream := &fakeStream{
		partials:  []string{"今", "今天", "今天开会"},
		finalText: "今天开会",
		finalConf: Float(0.95),
	}
	pass2 := &fakeTranscriber{name: "slow", text: "今天開會", conf: Float(0.99)}

	eng := NewRealtime(stream, pass2, DefaultPolicyConfig())
	chunks := [][]int16{{1, 2}, {3, 4}, {5, 6}}
	got, err := eng.TranscribeChunks(context.Background(), chunks, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Updates) != 3 {
		t.Fatalf("got %d updates, want 3", len(got.Updates))
	}
	last := got.Updates[len(got.Updates)-1]
	if !last.IsFinal || last.ChunkIndex != 2 {
		t.Errorf("last update = %+v, want final at index 2", last)
	}
	if got.Commit.Text != "今天開會" {
		t.Errorf("Text = %q, want corrected text", got.Commit.Text)
	}
	if !got.Commit.Decision.RunPass2 {
		t.Error("Decision.RunPass2 = false, want true when forced")
	}
}

func TestRealtimeSkipsEmptyChunks(t *testing.T) {
	stream := &fakeStream{
		partials:  []string{"好的"},
		finalText: "好的",
		finalConf: Float(0.95),
	}

	eng := NewRealtime(stream, nil, DefaultPolicyConfig())
	chunks := [][]int16{nil, {7, 8}, nil}
	got, err := eng.TranscribeChunks(context.Background(), chunks, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(got.Updates))
	}
	// The trailing empty chunk never reaches the session, so the pushed
	// chunk keeps its original index and is not marked final.
	if got.Updates[0].ChunkIndex != 1 || got.Updates[0].IsFinal {
		t.Errorf("update = %+v, want non-final at original index 1", got.Updates[0])
	}
	if got.Commit.Text != "好的" {
		t.Errorf("Text = %q, want %q", got.Commit.Text, "好的")
	}
}

func TestRealtimeAllEmptyChunksNeverEscalates(t *testing.T) {
	stream := &fakeStream{finalText: "unused", finalConf: Float(0.1)}
	pass2 := &fakeTranscriber{name: "slow", text: "unused"}

	eng := NewRealtime(stream, pass2, DefaultPolicyConfig())
	got, err := eng.TranscribeChunks(context.Background(), [][]int16{nil, {}, nil}, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if pass2.calls != 0 {
		t.Errorf("pass 2 called %d times on silence, want 0", pass2.calls)
	}
	if got.Commit.Pass2 != nil {
		t.Errorf("Pass2 = %+v, want nil", got.Commit.Pass2)
	}
	if len(got.Updates) != 0 {
		t.Errorf("got %d updates, want 0", len(got.Updates))
	}
	if got.Commit.Text != "" {
		t.Errorf("Text = %q, want empty commit", got.Commit.Text)
	}
}

func TestRealtimePass2ReceivesFlacClip(t *testing.T) {
	stream := &fakeStream{
		partials:  []string{"转账 5000 元"},
		finalText: "转账 5000 元",
		finalConf: Float(0.95),
	}
	var clip Clip
	pass2 := &capturingTranscriber{text: "转账五千元", captured: &clip}

	eng := NewRealtime(stream, pass2, DefaultPolicyConfig())
	got, err := eng.TranscribeChunks(context.Background(), [][]int16{{100, -100, 200, -200}}, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if got.Commit.Text != "转账五千元" {
		t.Errorf("Text = %q, want corrected text", got.Commit.Text)
	}
	if clip.Format != "flac" {
		t.Errorf("clip format = %q, want flac", clip.Format)
	}
	if !bytes.HasPrefix(clip.Data, []byte("fLaC")) {
		t.Error("re-encoded clip does not start with the FLAC magic")
	}
}

func TestRealtimeSessionErrorPropagates(t *testing.T) {
	eng := NewRealtime(&failingStream{}, nil, DefaultPolicyConfig())
	_, err := eng.TranscribeChunks(context.Background(), [][]int16{{1}}, nil, false)
	if err == nil {
		t.Fatal("err = nil, want session push error")
	}
}

type failingStream struct{}

func (f *failingStream) Start(hotwords []string) error { return nil }
func (f *failingStream) PushChunk(samples []int16, isFinal bool, chunkIndex int) (*StreamUpdate, error) {
	return nil, errors.New("decoder desynced")
}
func (f *failingStream) End() (Result, error) { return Result{}, nil }

type capturingTranscriber struct {
	text     string
	captured *Clip
}

func (c *capturingTranscriber) Name() string { return "capturing" }
func (c *capturingTranscriber) Remote() bool { return false }
func (c *capturingTranscriber) Transcribe(ctx context.Context, clip Clip, hotwords []string) (Result, error) {
	*c.captured = clip
	return Result{Text: c.text, Confidence: Float(0.99), Model: c.Name()}, nil
}
