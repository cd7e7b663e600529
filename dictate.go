package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"murmur/audio"
	"murmur/commit"
	"murmur/config"
	"murmur/encoder"
	"murmur/engine"
	"murmur/hotkey"
	"murmur/log"
	"murmur/notify"
)

// dictation is the live hotkey-driven loop: record until the key or the
// silence monitor says stop, run both passes, push the text out.
type dictation struct {
	cfg       config.Config
	pass1     engine.Transcriber
	pass2     engine.Transcriber
	hotwords  []string
	force     bool
	committer commit.Committer
	notifier  notify.Notifier
	fakeWav   string
	longPress time.Duration
}

func (d *dictation) run() error {
	combo, err := hotkey.ParseCombo(d.cfg.Dictate.Hotkey)
	if err != nil {
		return err
	}
	hk, err := hotkey.New(combo)
	if err != nil {
		return err
	}
	if err := hk.Register(); err != nil {
		return fmt.Errorf("register hotkey %s: %w", combo, err)
	}
	defer hk.Unregister()

	audioCtx, err := d.audioContext()
	if err != nil {
		return err
	}
	defer audioCtx.Close()

	d.warnBluetooth(audioCtx)

	hy := hotkey.NewHybrid(hk, d.longPress)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	log.SessionStart(d.pass1.Name(), passName(d.pass2), "dictate")
	d.notifier.Notify(notify.Notification{
		Title:   "murmur ready",
		Body:    "press " + combo.String() + " to dictate",
		Urgency: "low",
	})

	eng := engine.New(d.pass1, d.pass2, d.cfg.PolicyConfig())
	eng.OnState = func(s engine.SessionState) {
		if s == engine.StateCorrecting {
			d.notifier.Notify(notify.Notification{Title: "correcting…", Urgency: "low"})
		}
	}

	count := 0
	for {
		select {
		case <-sig:
			log.SessionEnd(count)
			return nil
		case <-hy.Start():
		}

		samples, err := d.record(audioCtx, hy)
		if err != nil {
			log.Errorf("recording: %v", err)
			d.notifier.Notify(notify.Notification{Title: "recording failed", Body: err.Error(), Urgency: "critical"})
			continue
		}
		if len(samples) == 0 {
			continue
		}

		start := time.Now()
		data, err := encoder.EncodeFLAC(samples)
		if err != nil {
			log.Errorf("encode: %v", err)
			continue
		}

		result, err := eng.TranscribeUtterance(context.Background(), engine.Clip{Format: "flac", Data: data}, d.hotwords, d.force)
		if err != nil {
			log.Errorf("transcribe: %v", err)
			d.notifier.Notify(notify.Notification{Title: "transcription failed", Body: err.Error(), Urgency: "critical"})
			continue
		}

		if result.Text != "" {
			if _, err := d.committer.Commit(result.Text); err != nil {
				d.notifier.Notify(notify.Notification{Title: "commit failed", Body: err.Error(), Urgency: "critical"})
			} else {
				d.notifier.Notify(notify.Notification{Title: "committed", Body: preview(result.Text), Urgency: "low"})
			}
			log.TranscriptionText(result.Text)
		}

		count++
		log.Utterance(log.UtteranceMetrics{
			AudioLengthS: float64(len(samples)) / float64(audio.SampleRate),
			Pass1Model:   result.Pass1.Model,
			Pass2Model:   resultModel(result.Pass2),
			Pass2Ran:     result.Pass2 != nil,
			TotalTimeMs:  float64(time.Since(start).Milliseconds()),
		})
	}
}

func (d *dictation) audioContext() (audio.Context, error) {
	if d.fakeWav != "" {
		return audio.NewFakeContext(d.fakeWav, true)
	}
	return audio.NewContext()
}

func (d *dictation) warnBluetooth(ctx audio.Context) {
	devices, err := ctx.Devices()
	if err != nil {
		return
	}
	name := d.cfg.Dictate.Device
	for _, dev := range devices {
		if (name == "" || dev.Name == name) && audio.IsBluetooth(dev.Name) {
			log.Warnf("bluetooth microphone %q may add latency", dev.Name)
			return
		}
	}
}

func (d *dictation) device(ctx audio.Context) (*audio.DeviceInfo, error) {
	name := d.cfg.Dictate.Device
	if name == "" {
		return nil, nil // system default
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("device %q not found", name)
}

// record captures until the hybrid controller or the silence monitor
// stops it, returning the buffered mono samples.
func (d *dictation) record(ctx audio.Context, hy *hotkey.Hybrid) ([]int16, error) {
	vp, err := newVADProcessor()
	if err != nil {
		return nil, fmt.Errorf("VAD init: %w", err)
	}

	dev, err := d.device(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var samples []int16
	var stopped bool

	capture, err := ctx.NewCapture(dev, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   1,
	}, func(data []byte, _ uint32) {
		mu.Lock()
		if !stopped {
			samples = append(samples, audio.Samples(data)...)
		}
		mu.Unlock()
		vp.Process(data)
	})
	if err != nil {
		return nil, err
	}
	defer capture.Close()

	if err := capture.Start(); err != nil {
		return nil, err
	}
	log.Info("recording_start")

	done := make(chan struct{})
	var closeOnce sync.Once
	closeDone := func() { closeOnce.Do(func() { close(done) }) }

	mon := newSilenceMonitor(hy.IsToggle)
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				switch mon.Tick(vp.HasSpeechTick()) {
				case SilenceWarn:
					log.Info("no_voice_warning")
					d.notifier.Notify(notify.Notification{Title: "no voice detected", Urgency: "normal"})
				case SilenceWarnClear:
					log.Info("voice_resumed")
				case SilenceRepeat:
					log.Info("silence_during_warning")
					d.notifier.Notify(notify.Notification{Title: "still silent", Urgency: "normal"})
				case SilenceAutoClose:
					log.Info("silence_auto_close")
					hy.NotifyStopped()
					closeDone()
					return
				}
			}
		}
	}()

	go func() {
		select {
		case <-hy.StopChan():
			log.Info("recording_stop")
			closeDone()
		case <-done:
		}
	}()
	<-done

	capture.Stop()

	mu.Lock()
	stopped = true
	out := samples
	mu.Unlock()

	total, speech := vp.Stats()
	log.VADStats(total, speech)
	return out, nil
}

func preview(text string) string {
	const max = 60
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

func resultModel(r *engine.Result) string {
	if r == nil {
		return ""
	}
	return r.Model
}
