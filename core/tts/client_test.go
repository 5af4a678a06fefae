package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSynthesize(t *testing.T) {
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tts" {
			t.Errorf("path = %q, want /api/tts", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"text":        q.Get("text"),
			"speaker_id":  q.Get("speaker_id"),
			"language_id": q.Get("language_id"),
		}
		w.Write([]byte("RIFF-wav-bytes"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	audio, err := client.Synthesize(context.Background(), "Welcome to the show.", DefaultHostVoice, "en")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if string(audio) != "RIFF-wav-bytes" {
		t.Errorf("audio = %q", audio)
	}
	if gotQuery["text"] != "Welcome to the show." {
		t.Errorf("text = %q", gotQuery["text"])
	}
	if gotQuery["speaker_id"] != "Damien Black" {
		t.Errorf("speaker_id = %q", gotQuery["speaker_id"])
	}
	if gotQuery["language_id"] != "en" {
		t.Errorf("language_id = %q", gotQuery["language_id"])
	}
}

func TestSynthesizeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.Synthesize(context.Background(), "text", DefaultGuestVoice, "en"); err == nil {
		t.Error("expected an error for a non-200 response")
	}
}
