package engine

import (
	"regexp"
	"strings"
	"time"
)

// Escalation reason tags, in evaluation order.
const (
	ReasonForced         = "forced_high_precision"
	ReasonLowConfidence  = "low_confidence"
	ReasonHighEnglish    = "high_english_ratio"
	ReasonRiskText       = "high_risk_text"
	ReasonHotwordMissing = "hotword_missing"
)

// PolicyConfig holds the only tunables of the escalation policy.
type PolicyConfig struct {
	ConfidenceThreshold   float64
	EnglishRatioThreshold float64
	Pass2TimeoutLocal     time.Duration
	Pass2TimeoutCloud     time.Duration
}

// DefaultPolicyConfig returns the stock thresholds.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		ConfidenceThreshold:   0.88,
		EnglishRatioThreshold: 0.15,
		Pass2TimeoutLocal:     900 * time.Millisecond,
		Pass2TimeoutCloud:     1500 * time.Millisecond,
	}
}

// Pass2Timeout picks the wait bound for a given pass-2 transcriber.
func (c PolicyConfig) Pass2Timeout(remote bool) time.Duration {
	if remote {
		return c.Pass2TimeoutCloud
	}
	return c.Pass2TimeoutLocal
}

// Text shapes whose recognition errors are expensive and cheap to
// re-verify: multi-digit numbers, ISO-like dates, emails, URLs.
var riskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{2,}\b`),
	regexp.MustCompile(`\b\d{4}[-/]\d{1,2}[-/]\d{1,2}\b`),
	regexp.MustCompile(`[\w.+-]+@[\w.-]+\.[A-Za-z]{2,}`),
	regexp.MustCompile(`https?://\S+`),
}

// Policy decides whether the correction pass is worth its latency. It
// holds read-only thresholds and may be shared across concurrent sessions.
type Policy struct {
	cfg PolicyConfig
}

func NewPolicy(cfg PolicyConfig) Policy { return Policy{cfg: cfg} }

// Evaluate is a pure function of its inputs: no clock, no I/O, no state.
// Rules match independently; every match appends its reason tag.
func (p Policy) Evaluate(result Result, ctx SessionContext) Decision {
	var reasons []string

	if ctx.ForceHighPrecision {
		reasons = append(reasons, ReasonForced)
	}
	if result.Confidence != nil && *result.Confidence < p.cfg.ConfidenceThreshold {
		reasons = append(reasons, ReasonLowConfidence)
	}
	if result.EnglishRatio > p.cfg.EnglishRatioThreshold {
		reasons = append(reasons, ReasonHighEnglish)
	}
	if containsRisk(result.Text) {
		reasons = append(reasons, ReasonRiskText)
	}
	if hotwordMissing(result.Text, ctx.Hotwords) {
		reasons = append(reasons, ReasonHotwordMissing)
	}

	return Decision{RunPass2: len(reasons) > 0, Reasons: reasons}
}

func containsRisk(text string) bool {
	for _, pat := range riskPatterns {
		if pat.MatchString(text) {
			return true
		}
	}
	return false
}

// hotwordMissing reports whether any non-blank hotword is absent from the
// text, compared case-insensitively. An empty list never triggers.
func hotwordMissing(text string, hotwords []string) bool {
	if len(hotwords) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, hw := range hotwords {
		hw = strings.ToLower(strings.TrimSpace(hw))
		if hw != "" && !strings.Contains(lower, hw) {
			return true
		}
	}
	return false
}
