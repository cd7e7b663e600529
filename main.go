package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"murmur/audio"
	"murmur/commit"
	"murmur/config"
	"murmur/encoder"
	"murmur/engine"
	"murmur/log"
	"murmur/notify"
	"murmur/transcriber"
)

var version = "dev"

func run() int {
	configFlag := flag.String("config", defaultConfigPath(), "Config file path")
	wavFlag := flag.String("wav", "", "Transcribe a WAV file instead of live dictation")
	modeFlag := flag.String("mode", "utterance", "File mode: utterance or realtime")
	chunkMsFlag := flag.Int("chunkms", 0, "Chunk size for realtime replay (ms, 0 = config value)")
	forceFlag := flag.Bool("force", false, "Always run the high-precision correction pass")
	commitFlag := flag.String("commit", "", "Commit backend: none, stdout, clipboard, paste, auto")
	notifyFlag := flag.String("notify", "", "Notify backend: none, stderr, notify-send, auto")
	benchFlag := flag.String("bench", "", "Benchmark with a WAV file instead of live dictation")
	runsFlag := flag.Int("runs", 3, "Number of benchmark iterations")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location)")
	fakeWavFlag := flag.String("fakewav", "", "Replay a WAV file as the microphone (live mode testing)")
	longPressFlag := flag.Duration("longpress", 350*time.Millisecond, "Long-press threshold for hold-to-talk vs tap")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	var hotwords []string
	flag.Func("hotword", "Expected term; escalates when missing (repeatable)", func(v string) error {
		hotwords = append(hotwords, v)
		return nil
	})
	flag.Parse()

	if *versionFlag {
		fmt.Println("murmur", version)
		return 0
	}

	logDir, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log dir:", err)
		return 1
	}
	log.SetDir(logDir)
	if err := log.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "log init:", err)
		return 1
	}
	defer log.Close()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	hotwords = append(cfg.Dictate.Hotwords, hotwords...)
	force := cfg.Dictate.ForceHighPrecision || *forceFlag
	chunkMs := cfg.Dictate.ChunkMs
	if *chunkMsFlag > 0 {
		chunkMs = *chunkMsFlag
	}

	pass1 := transcriber.NewLocal(cfg.Pass1.Endpoint)
	var pass2 engine.Transcriber
	if cfg.Pass2.Endpoint != "" {
		if cfg.Pass2.Remote {
			pass2 = transcriber.NewCloud(cfg.Pass2.Endpoint, cfg.Pass2.APIKey)
		} else {
			pass2 = transcriber.NewLocal(cfg.Pass2.Endpoint)
		}
	}

	if *benchFlag != "" {
		return runBenchmark(*benchFlag, *runsFlag, pass1, pass2, cfg.PolicyConfig(), hotwords, force)
	}

	if *wavFlag != "" {
		return runFile(*wavFlag, *modeFlag, chunkMs, pass1, pass2, cfg.PolicyConfig(), hotwords, force)
	}

	commitBackend := cfg.Commit.Backend
	if *commitFlag != "" {
		commitBackend = *commitFlag
	}
	committer, err := commit.Resolve(commitBackend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	notifyBackend := cfg.Notify.Backend
	if *notifyFlag != "" {
		notifyBackend = *notifyFlag
	}
	notifier, err := notify.Resolve(notifyBackend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	d := &dictation{
		cfg:       cfg,
		pass1:     pass1,
		pass2:     pass2,
		hotwords:  hotwords,
		force:     force,
		committer: committer,
		notifier:  notifier,
		fakeWav:   *fakeWavFlag,
		longPress: *longPressFlag,
	}
	if err := d.run(); err != nil {
		log.Errorf("dictation: %v", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir + "/murmur/murmur.toml"
}

// jsonOutput is the file-mode result printed to stdout.
type jsonOutput struct {
	Mode     string       `json:"mode"`
	State    string       `json:"state"`
	Text     string       `json:"text"`
	Decision jsonDecision `json:"decision"`
	Pass1    jsonPass     `json:"pass1"`
	Pass2    *jsonPass    `json:"pass2"`
	Updates  []jsonUpdate `json:"updates,omitempty"`
	Elapsed  float64      `json:"elapsed_ms"`
}

type jsonDecision struct {
	RunPass2 bool     `json:"run_pass2"`
	Reasons  []string `json:"reasons"`
}

type jsonPass struct {
	Model      string   `json:"model"`
	Confidence *float64 `json:"confidence"`
	Text       string   `json:"text"`
}

type jsonUpdate struct {
	Text       string `json:"text"`
	IsFinal    bool   `json:"is_final"`
	ChunkIndex int    `json:"chunk_index"`
}

func toJSONPass(r engine.Result) jsonPass {
	return jsonPass{Model: r.Model, Confidence: r.Confidence, Text: r.Text}
}

func buildOutput(mode string, c engine.CommitResult, updates []engine.StreamUpdate, elapsed time.Duration) jsonOutput {
	out := jsonOutput{
		Mode:  mode,
		State: string(c.State),
		Text:  c.Text,
		Decision: jsonDecision{
			RunPass2: c.Decision.RunPass2,
			Reasons:  append([]string{}, c.Decision.Reasons...),
		},
		Pass1:   toJSONPass(c.Pass1),
		Elapsed: float64(elapsed.Milliseconds()),
	}
	if c.Pass2 != nil {
		p := toJSONPass(*c.Pass2)
		out.Pass2 = &p
	}
	for _, u := range updates {
		out.Updates = append(out.Updates, jsonUpdate{Text: u.Text, IsFinal: u.IsFinal, ChunkIndex: u.ChunkIndex})
	}
	return out
}

func runFile(wavPath, mode string, chunkMs int, pass1, pass2 engine.Transcriber, pcfg engine.PolicyConfig, hotwords []string, force bool) int {
	samples, err := audio.ReadWAV(wavPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log.SessionStart(pass1.Name(), passName(pass2), mode)

	start := time.Now()
	var out jsonOutput
	switch mode {
	case "utterance":
		data, err := encoder.EncodeFLAC(samples)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		eng := engine.New(pass1, pass2, pcfg)
		result, err := eng.TranscribeUtterance(context.Background(), engine.Clip{Format: "flac", Data: data}, hotwords, force)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out = buildOutput(mode, result, nil, time.Since(start))

	case "realtime":
		stream := transcriber.NewBufferedStream(pass1)
		eng := engine.NewRealtime(stream, pass2, pcfg)
		chunks := audio.Chunk(samples, audio.SampleRate, chunkMs)
		result, err := eng.TranscribeChunks(context.Background(), chunks, hotwords, force)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out = buildOutput(mode, result.Commit, result.Updates, time.Since(start))

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want utterance or realtime)\n", mode)
		return 2
	}

	log.TranscriptionText(out.Text)
	log.Utterance(log.UtteranceMetrics{
		AudioLengthS: float64(len(samples)) / float64(audio.SampleRate),
		Pass1Model:   out.Pass1.Model,
		Pass2Model:   pass2Model(out.Pass2),
		Pass2Ran:     out.Pass2 != nil,
		TotalTimeMs:  out.Elapsed,
	})
	log.SessionEnd(1)

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func passName(t engine.Transcriber) string {
	if t == nil {
		return ""
	}
	return t.Name()
}

func pass2Model(p *jsonPass) string {
	if p == nil {
		return ""
	}
	return p.Model
}
