package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SampleRate is the rate every pass expects. WAV inputs at another rate
// are rejected rather than resampled.
const SampleRate = 16000

// ReadWAV loads a PCM WAV file and returns mono 16-bit samples. Stereo
// input is downmixed by channel averaging.
func ReadWAV(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if dec.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d, want 16", dec.BitDepth)
	}
	if int(dec.SampleRate) != SampleRate {
		return nil, fmt.Errorf("unsupported sample rate %d, want %d", dec.SampleRate, SampleRate)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("wav reports %d channels", channels)
	}
	if channels == 1 {
		samples := make([]int16, len(buf.Data))
		for i, v := range buf.Data {
			samples[i] = int16(v)
		}
		return samples, nil
	}

	frames := len(buf.Data) / channels
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch]
		}
		samples[i] = int16(sum / channels)
	}
	return samples, nil
}

// WriteWAV writes mono 16-bit samples as a PCM WAV file.
func WriteWAV(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// Chunk splits samples into fixed-duration chunks for chunked replay.
// The last chunk may be shorter; chunkMs must be positive.
func Chunk(samples []int16, sampleRate, chunkMs int) [][]int16 {
	if chunkMs <= 0 || len(samples) == 0 {
		return nil
	}
	size := sampleRate * chunkMs / 1000
	if size <= 0 {
		return nil
	}
	chunks := make([][]int16, 0, (len(samples)+size-1)/size)
	for start := 0; start < len(samples); start += size {
		end := start + size
		if end > len(samples) {
			end = len(samples)
		}
		chunks = append(chunks, samples[start:end])
	}
	return chunks
}
