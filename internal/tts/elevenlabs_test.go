package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestElevenLabsSynthesize(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	var gotReq ttsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("xi-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte("pcm-audio-bytes"))
	}))
	defer server.Close()

	client := NewElevenLabsClient(ElevenLabsConfig{
		APIKey:  "el-key",
		VoiceID: "voice-1",
		BaseURL: server.URL,
	})

	audio, err := client.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "pcm-audio-bytes" {
		t.Errorf("audio = %q", audio)
	}
	if gotPath != "/voice-1" {
		t.Errorf("path = %q, want /voice-1", gotPath)
	}
	if !strings.Contains(gotQuery, "output_format=pcm_16000") {
		t.Errorf("query = %q, want pcm_16000 output", gotQuery)
	}
	if gotKey != "el-key" {
		t.Errorf("xi-api-key = %q", gotKey)
	}
	if gotReq.Text != "hello" {
		t.Errorf("request text = %q", gotReq.Text)
	}
	if gotReq.ModelID != "eleven_flash_v2_5" {
		t.Errorf("model_id = %q", gotReq.ModelID)
	}
}

func TestElevenLabsSynthesizeEmptyText(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewElevenLabsClient(ElevenLabsConfig{BaseURL: server.URL})

	audio, err := client.Synthesize(context.Background(), "")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(audio) != 0 {
		t.Errorf("audio = %v, want empty", audio)
	}
	if called {
		t.Error("empty text should not hit the server")
	}
}

func TestElevenLabsSynthesizeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid voice", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewElevenLabsClient(ElevenLabsConfig{BaseURL: server.URL})

	if _, err := client.Synthesize(context.Background(), "hi"); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestPlaceholder(t *testing.T) {
	if got := string(Placeholder("hi there")); got != "[tts-bytes for 'hi there']" {
		t.Errorf("Placeholder = %q", got)
	}
	if got := Placeholder(""); len(got) != 0 {
		t.Errorf("Placeholder(\"\") = %v, want empty", got)
	}

	client := NewPlaceholderClient()
	audio, err := client.Synthesize(context.Background(), "spoken reply")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "[tts-bytes for 'spoken reply']" {
		t.Errorf("audio = %q", audio)
	}
}
