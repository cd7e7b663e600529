package transcriber

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"murmur/engine"
)

func asrServer(t *testing.T, reply string, confidence *float64, gotReq *asrRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		if gotReq != nil {
			if err := json.NewDecoder(r.Body).Decode(gotReq); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		json.NewEncoder(w).Encode(asrResponse{Text: reply, Confidence: confidence, Model: "test-asr"})
	}))
}

func TestHTTPTranscribe(t *testing.T) {
	var gotReq asrRequest
	srv := asrServer(t, "今天开会", engine.Float(0.93), &gotReq)
	defer srv.Close()

	tr := NewLocal(srv.URL)
	clip := engine.Clip{Format: "flac", Data: []byte{0x66, 0x4c, 0x61, 0x43}}
	got, err := tr.Transcribe(context.Background(), clip, []string{"开会"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "今天开会" || got.Model != "test-asr" {
		t.Errorf("result = %+v", got)
	}
	if got.Confidence == nil || *got.Confidence != 0.93 {
		t.Errorf("Confidence = %v, want 0.93", got.Confidence)
	}
	if got.Metadata["source"] != "local" {
		t.Errorf("source = %q, want local", got.Metadata["source"])
	}

	if gotReq.Format != "flac" {
		t.Errorf("request format = %q, want flac", gotReq.Format)
	}
	if want := base64.StdEncoding.EncodeToString(clip.Data); gotReq.AudioBase64 != want {
		t.Errorf("audio_base64 = %q, want %q", gotReq.AudioBase64, want)
	}
	if len(gotReq.Hotwords) != 1 || gotReq.Hotwords[0] != "开会" {
		t.Errorf("hotwords = %v", gotReq.Hotwords)
	}
}

func TestHTTPTranscribeAbsentConfidence(t *testing.T) {
	srv := asrServer(t, "hello", nil, nil)
	defer srv.Close()

	tr := NewLocal(srv.URL)
	got, err := tr.Transcribe(context.Background(), engine.Clip{Format: "flac"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Confidence != nil {
		t.Errorf("Confidence = %v, want nil when the server omits it", *got.Confidence)
	}
	if got.EnglishRatio != 1 {
		t.Errorf("EnglishRatio = %v, want 1", got.EnglishRatio)
	}
}

func TestHTTPTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := NewLocal(srv.URL)
	if _, err := tr.Transcribe(context.Background(), engine.Clip{Format: "flac"}, nil); err == nil {
		t.Fatal("err = nil, want error on non-200")
	}
}

func TestHTTPTranscribeSendsAuth(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "HEAD" { // connection warm-up
			return
		}
		auth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(asrResponse{Text: "ok"})
	}))
	defer srv.Close()

	tr := NewCloud(srv.URL, "secret-key")
	if !tr.Remote() {
		t.Error("Remote() = false, want true for the cloud pass")
	}
	if _, err := tr.Transcribe(context.Background(), engine.Clip{Format: "flac"}, nil); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer secret-key" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestBufferedStreamTranscribesOnEnd(t *testing.T) {
	fake := &Fake{Text: "缓冲整段", Confidence: engine.Float(0.9)}
	s := NewBufferedStream(fake)

	if err := s.Start([]string{"缓冲"}); err != nil {
		t.Fatal(err)
	}
	for i, chunk := range [][]int16{{1, 2}, {3, 4}, {5}} {
		update, err := s.PushChunk(chunk, i == 2, i)
		if err != nil {
			t.Fatal(err)
		}
		if update != nil {
			t.Errorf("chunk %d: update = %+v, want no partials", i, update)
		}
	}

	got, err := s.End()
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "缓冲整段" {
		t.Errorf("Text = %q", got.Text)
	}
	if fake.Calls != 1 {
		t.Errorf("transcriber called %d times, want 1", fake.Calls)
	}
}

func TestBufferedStreamRejectsOutOfOrder(t *testing.T) {
	s := NewBufferedStream(&Fake{Text: "x"})
	if err := s.Start(nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PushChunk([]int16{1}, false, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PushChunk([]int16{2}, false, 3); err == nil {
		t.Error("repeated index accepted, want error")
	}
	if _, err := s.PushChunk([]int16{2}, false, 1); err == nil {
		t.Error("decreasing index accepted, want error")
	}
}

func TestBufferedStreamEmpty(t *testing.T) {
	fake := &Fake{Text: "unused"}
	s := NewBufferedStream(fake)
	if err := s.Start(nil); err != nil {
		t.Fatal(err)
	}
	got, err := s.End()
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "" {
		t.Errorf("Text = %q, want empty for an empty buffer", got.Text)
	}
	if fake.Calls != 0 {
		t.Errorf("transcriber called %d times on empty buffer, want 0", fake.Calls)
	}
}

func TestBufferedStreamRequiresStart(t *testing.T) {
	s := NewBufferedStream(&Fake{Text: "x"})
	if _, err := s.PushChunk([]int16{1}, false, 0); err == nil {
		t.Error("push before start accepted, want error")
	}
	if _, err := s.End(); err == nil {
		t.Error("end before start accepted, want error")
	}
}
