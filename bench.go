package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"murmur/audio"
	"murmur/encoder"
	"murmur/engine"
)

type benchRecord struct {
	TotalMs  float64
	EncodeMs float64
	Pass2Ran bool
}

// runBenchmark replays one WAV through the full pipeline N times and
// prints latency percentiles.
func runBenchmark(wavPath string, runs int, pass1, pass2 engine.Transcriber, pcfg engine.PolicyConfig, hotwords []string, force bool) int {
	samples, err := audio.ReadWAV(wavPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	audioDur := float64(len(samples)) / float64(audio.SampleRate)
	fmt.Printf("Benchmark: %s (%.1fs audio, %d runs)\n", wavPath, audioDur, runs)

	eng := engine.New(pass1, pass2, pcfg)
	var records []benchRecord

	for i := 1; i <= runs; i++ {
		start := time.Now()
		data, err := encoder.EncodeFLAC(samples)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		encodeMs := float64(time.Since(start).Milliseconds())

		result, err := eng.TranscribeUtterance(context.Background(), engine.Clip{Format: "flac", Data: data}, hotwords, force)
		if err != nil {
			fmt.Fprintf(os.Stderr, "run %d: %v\n", i, err)
			return 1
		}
		totalMs := float64(time.Since(start).Milliseconds())
		records = append(records, benchRecord{TotalMs: totalMs, EncodeMs: encodeMs, Pass2Ran: result.Pass2 != nil})

		fmt.Printf("=== Run %d ===\n", i)
		fmt.Printf("Text: %s\n", result.Text)
		fmt.Printf("  total %.0fms  encode %.0fms  pass2 %v (%v)\n",
			totalMs, encodeMs, result.Decision.RunPass2, result.Decision.Reasons)

		if i < runs {
			time.Sleep(500 * time.Millisecond)
		}
	}

	printPercentiles(records)
	return 0
}

func printPercentiles(records []benchRecord) {
	if len(records) == 0 {
		return
	}

	extract := func(fn func(benchRecord) float64) []float64 {
		vals := make([]float64, len(records))
		for i, r := range records {
			vals[i] = fn(r)
		}
		sort.Float64s(vals)
		return vals
	}

	percentile := func(sorted []float64, p float64) float64 {
		idx := int(float64(len(sorted)-1) * p)
		return sorted[idx]
	}

	line := func(name string, sorted []float64) {
		fmt.Printf("  %-8s min %.0f  p50 %.0f  p90 %.0f  p95 %.0f  max %.0f\n",
			name, sorted[0], percentile(sorted, 0.50), percentile(sorted, 0.90),
			percentile(sorted, 0.95), sorted[len(sorted)-1])
	}

	pass2Runs := 0
	for _, r := range records {
		if r.Pass2Ran {
			pass2Runs++
		}
	}

	fmt.Printf("Percentiles (ms) over %d runs, pass2 ran %d times:\n", len(records), pass2Runs)
	line("total", extract(func(r benchRecord) float64 { return r.TotalMs }))
	line("encode", extract(func(r benchRecord) float64 { return r.EncodeMs }))
}
