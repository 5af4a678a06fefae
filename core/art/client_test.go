package art

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerate(t *testing.T) {
	var gotAuth, gotPrefer string
	var gotBody predictionRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/image.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/predictions", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPrefer = r.Header.Get("Prefer")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		fmt.Fprintf(w, `{"id": "p1", "status": "succeeded", "output": [%q]}`, srv.URL+"/image.png")
	})

	client := NewClient(&Config{APIBaseURL: srv.URL, Token: "tok", Model: "model-hash"})
	img, err := client.Generate(context.Background(), "a lighthouse at dusk")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if string(img) != "png-bytes" {
		t.Errorf("image bytes = %q", img)
	}
	if gotAuth != "Token tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPrefer != "wait" {
		t.Errorf("Prefer = %q", gotPrefer)
	}
	if gotBody.Version != "model-hash" {
		t.Errorf("version = %q", gotBody.Version)
	}
	if gotBody.Input.Prompt != "a lighthouse at dusk" {
		t.Errorf("prompt = %q", gotBody.Input.Prompt)
	}
}

func TestGenerateNoResult(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "failed status", body: `{"id": "p1", "status": "failed", "error": "nsfw"}`},
		{name: "succeeded without output", body: `{"id": "p1", "status": "succeeded", "output": []}`},
		{name: "null output", body: `{"id": "p1", "status": "succeeded", "output": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(&Config{APIBaseURL: srv.URL, Token: "tok", Model: "m"})
			img, err := client.Generate(context.Background(), "prompt")
			// 无结果不是错误，由调用方决定如何处理
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img != nil {
				t.Errorf("expected nil image, got %d bytes", len(img))
			}
		})
	}
}

func TestGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(&Config{APIBaseURL: srv.URL, Token: "tok", Model: "m"})
	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Error("expected an error for a non-2xx response")
	}
}

func TestFirstOutputURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "list of urls", raw: `["https://a/1.png", "https://a/2.png"]`, want: "https://a/1.png"},
		{name: "single string", raw: `"https://a/1.png"`, want: "https://a/1.png"},
		{name: "empty list", raw: `[]`, want: ""},
		{name: "null", raw: `null`, want: ""},
		{name: "object", raw: `{"url": "https://a/1.png"}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstOutputURL(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("firstOutputURL(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
