package audio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestChunkSizes(t *testing.T) {
	samples := make([]int16, 16000) // 1s at 16kHz

	chunks := Chunk(samples, SampleRate, 480)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if len(chunks[0]) != 7680 || len(chunks[1]) != 7680 {
		t.Errorf("full chunk sizes = %d, %d, want 7680", len(chunks[0]), len(chunks[1]))
	}
	if len(chunks[2]) != 16000-2*7680 {
		t.Errorf("tail chunk size = %d, want %d", len(chunks[2]), 16000-2*7680)
	}

	if got := Chunk(samples, SampleRate, 0); got != nil {
		t.Errorf("zero chunkMs: got %d chunks, want nil", len(got))
	}
	if got := Chunk(nil, SampleRate, 480); got != nil {
		t.Errorf("empty samples: got %d chunks, want nil", len(got))
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")

	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(SampleRate)))
	}
	if err := WriteWAV(path, samples, SampleRate); err != nil {
		t.Fatal(err)
	}

	got, err := ReadWAV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}
	for i := range got {
		if got[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestReadWAVRejectsWrongRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.wav")
	if err := WriteWAV(path, make([]int16, 800), 8000); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadWAV(path); err == nil {
		t.Fatal("err = nil, want sample rate rejection")
	}
}

func TestSamples(t *testing.T) {
	data := []byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x80, 0x0a}
	got := Samples(data)
	want := []int16{1, -1, -32768}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestIsBluetooth(t *testing.T) {
	for _, tt := range []struct {
		name string
		want bool
	}{
		{"AirPods Pro", true},
		{"Sony WH-1000XM5", true},
		{"Built-in Microphone", false},
		{"USB Audio Device", false},
	} {
		if got := IsBluetooth(tt.name); got != tt.want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
