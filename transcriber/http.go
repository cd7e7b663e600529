package transcriber

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"murmur/engine"
	"murmur/log"
)

// HTTP talks to an ASR endpoint speaking the sidecar protocol: a JSON
// POST with base64 audio and hotwords, answered with text plus an
// optional confidence. Both the fast local server and the cloud
// correction endpoint speak it.
type HTTP struct {
	name     string
	endpoint string
	apiKey   string
	remote   bool
	client   *TracedClient
}

// NewLocal builds a client for the fast on-box pass.
func NewLocal(endpoint string) *HTTP {
	return &HTTP{
		name:     "local",
		endpoint: endpoint,
		client:   NewTracedClient(),
	}
}

// NewCloud builds a client for the remote correction pass. The longer
// cloud wait bound applies to it.
func NewCloud(endpoint, apiKey string) *HTTP {
	h := &HTTP{
		name:     "cloud",
		endpoint: endpoint,
		apiKey:   apiKey,
		remote:   true,
		client:   NewTracedClient(),
	}
	go h.client.Warm(endpoint)
	return h
}

func (h *HTTP) Name() string { return h.name }
func (h *HTTP) Remote() bool { return h.remote }

type asrRequest struct {
	AudioBase64 string   `json:"audio_base64"`
	Format      string   `json:"format"`
	Hotwords    []string `json:"hotwords,omitempty"`
}

type asrResponse struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
	Model      string   `json:"model"`
}

func (h *HTTP) Transcribe(ctx context.Context, clip engine.Clip, hotwords []string) (engine.Result, error) {
	payload, err := json.Marshal(asrRequest{
		AudioBase64: base64.StdEncoding.EncodeToString(clip.Data),
		Format:      clip.Format,
		Hotwords:    hotwords,
	})
	if err != nil {
		return engine.Result{}, fmt.Errorf("%s: encode request: %w", h.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return engine.Result{}, fmt.Errorf("%s: build request: %w", h.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return engine.Result{}, fmt.Errorf("%s: %w", h.name, err)
	}
	if resp.StatusCode != 200 {
		return engine.Result{}, fmt.Errorf("%s: asr error %d: %s", h.name, resp.StatusCode, string(resp.Body))
	}

	var ar asrResponse
	if err := json.Unmarshal(resp.Body, &ar); err != nil {
		return engine.Result{}, fmt.Errorf("%s: parse response: %w", h.name, err)
	}

	log.ASRRequest(h.name, ar.Model, resp.Metrics.Total, resp.Metrics.TTFB, resp.Metrics.ConnReused)

	return engine.Result{
		Text:         ar.Text,
		Confidence:   ar.Confidence,
		EnglishRatio: engine.EnglishRatio(ar.Text),
		Model:        ar.Model,
		Metadata:     map[string]string{"source": h.name},
	}, nil
}
