package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"murmur/engine"
)

type PolicySection struct {
	ConfidenceThreshold   float64 `toml:"confidence_threshold"`
	EnglishRatioThreshold float64 `toml:"english_ratio_threshold"`
	Pass2TimeoutLocalMs   int     `toml:"pass2_timeout_local_ms"`
	Pass2TimeoutCloudMs   int     `toml:"pass2_timeout_cloud_ms"`
}

type PassSection struct {
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
	Remote   bool   `toml:"remote"`
}

type CommitSection struct {
	Backend string `toml:"backend"`
}

type NotifySection struct {
	Backend string `toml:"backend"`
}

type DictateSection struct {
	Hotwords           []string `toml:"hotwords"`
	ForceHighPrecision bool     `toml:"force_high_precision"`
	ChunkMs            int      `toml:"chunk_ms"`
	Hotkey             string   `toml:"hotkey"`
	Device             string   `toml:"device"`
}

type Config struct {
	Policy  PolicySection  `toml:"policy"`
	Pass1   PassSection    `toml:"pass1"`
	Pass2   PassSection    `toml:"pass2"`
	Commit  CommitSection  `toml:"commit"`
	Notify  NotifySection  `toml:"notify"`
	Dictate DictateSection `toml:"dictate"`
}

func Default() Config {
	p := engine.DefaultPolicyConfig()
	return Config{
		Policy: PolicySection{
			ConfidenceThreshold:   p.ConfidenceThreshold,
			EnglishRatioThreshold: p.EnglishRatioThreshold,
			Pass2TimeoutLocalMs:   int(p.Pass2TimeoutLocal / time.Millisecond),
			Pass2TimeoutCloudMs:   int(p.Pass2TimeoutCloud / time.Millisecond),
		},
		Pass1:   PassSection{Endpoint: "http://127.0.0.1:18100/asr"},
		Pass2:   PassSection{Remote: true},
		Commit:  CommitSection{Backend: "auto"},
		Notify:  NotifySection{Backend: "auto"},
		Dictate: DictateSection{ChunkMs: 480, Hotkey: "ctrl+shift+space"},
	}
}

// Load reads a TOML config file, then applies MURMUR_* environment
// overrides. A missing file is not an error: defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	overrideString(&cfg.Pass1.Endpoint, "MURMUR_PASS1_ENDPOINT")
	overrideString(&cfg.Pass1.APIKey, "MURMUR_PASS1_API_KEY")
	overrideString(&cfg.Pass2.Endpoint, "MURMUR_PASS2_ENDPOINT")
	overrideString(&cfg.Pass2.APIKey, "MURMUR_PASS2_API_KEY")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Policy.ConfidenceThreshold < 0 || c.Policy.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold %v outside [0, 1]", c.Policy.ConfidenceThreshold)
	}
	if c.Policy.EnglishRatioThreshold < 0 || c.Policy.EnglishRatioThreshold > 1 {
		return fmt.Errorf("english_ratio_threshold %v outside [0, 1]", c.Policy.EnglishRatioThreshold)
	}
	if c.Policy.Pass2TimeoutLocalMs < 0 || c.Policy.Pass2TimeoutCloudMs < 0 {
		return fmt.Errorf("pass-2 timeouts must not be negative")
	}
	if c.Dictate.ChunkMs <= 0 {
		return fmt.Errorf("chunk_ms must be positive, got %d", c.Dictate.ChunkMs)
	}
	return nil
}

// PolicyConfig converts the file representation to engine units.
func (c Config) PolicyConfig() engine.PolicyConfig {
	return engine.PolicyConfig{
		ConfidenceThreshold:   c.Policy.ConfidenceThreshold,
		EnglishRatioThreshold: c.Policy.EnglishRatioThreshold,
		Pass2TimeoutLocal:     time.Duration(c.Policy.Pass2TimeoutLocalMs) * time.Millisecond,
		Pass2TimeoutCloud:     time.Duration(c.Policy.Pass2TimeoutCloudMs) * time.Millisecond,
	}
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}
