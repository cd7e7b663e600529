package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: MURMUR_LOG_PATH environment variable
	envPath := os.Getenv("MURMUR_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: default OS-specific location
	return defaultDir()
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "murmur"), nil
	}
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "murmur", "logs"), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribePath := filepath.Join(dir, "transcribe_log.txt")
	transcribeFile, err = os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// Decision records one escalation policy verdict.
func Decision(runPass2 bool, reasons []string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Bool("run_pass2", runPass2).
		Strs("reasons", reasons).
		Msg("escalation_decision")
}

// Pass2Done records a correction pass that completed within its deadline.
func Pass2Done(provider string, elapsed time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("provider", provider).
		Float64("elapsed_ms", float64(elapsed.Milliseconds())).
		Msg("pass2_done")
}

// Pass2Timeout records a correction pass abandoned at its deadline.
func Pass2Timeout(provider string, timeout time.Duration) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Str("provider", provider).
		Float64("timeout_ms", float64(timeout.Milliseconds())).
		Msg("pass2_timeout")
}

// ASRRequest records per-request network timing for one provider call.
func ASRRequest(provider, model string, total, ttfb time.Duration, connReused bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("provider", provider).
		Str("model", model).
		Float64("total_ms", float64(total.Milliseconds())).
		Float64("ttfb_ms", float64(ttfb.Milliseconds())).
		Bool("conn_reused", connReused).
		Msg("asr_request")
}

// VADStats records how much of a finished recording was speech.
func VADStats(totalFrames, speechFrames int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("total_frames", totalFrames).
		Int("speech_frames", speechFrames).
		Msg("vad_stats")
}

// CommitEvent records the outcome of pushing final text to the desktop.
func CommitEvent(backend string, committed bool, detail string) {
	if !logReady {
		return
	}
	ev := diagLog.Info().
		Str("backend", backend).
		Bool("committed", committed)
	if detail != "" {
		ev = ev.Str("detail", detail)
	}
	ev.Msg("commit")
}

// UtteranceMetrics summarizes one full engine run.
type UtteranceMetrics struct {
	AudioLengthS float64
	Pass1Model   string
	Pass2Model   string
	Pass2Ran     bool
	TotalTimeMs  float64
}

func Utterance(m UtteranceMetrics) {
	if !logReady {
		return
	}
	ev := diagLog.Info().
		Float64("audio_s", m.AudioLengthS).
		Str("pass1_model", m.Pass1Model).
		Bool("pass2_ran", m.Pass2Ran).
		Float64("total_ms", m.TotalTimeMs)
	if m.Pass2Model != "" {
		ev = ev.Str("pass2_model", m.Pass2Model)
	}
	ev.Msg("utterance")
}

// TranscriptionText appends committed text to the plain transcript file.
func TranscriptionText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}

func SessionStart(pass1, pass2, mode string) {
	if !logReady {
		return
	}
	ev := diagLog.Info().
		Str("pass1", pass1).
		Str("mode", mode)
	if pass2 != "" {
		ev = ev.Str("pass2", pass2)
	}
	ev.Msg("session_start")
}

func SessionEnd(count int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("count", count).
		Msg("session_end")
}
