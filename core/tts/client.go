package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Voices used for dialogue synthesis. Voice selection is fixed per speaker
// slot and deliberately independent of the podcast language.
const (
	DefaultHostVoice  = "Damien Black"
	DefaultGuestVoice = "Sofia Hellen"
)

// Client calls a Coqui-style speech synthesis HTTP endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a speech synthesis client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // 单条长台词的合成可能较慢
		},
	}
}

// Synthesize renders text to raw WAV bytes with the given voice and language.
func (c *Client) Synthesize(ctx context.Context, text, voice, language string) ([]byte, error) {
	params := url.Values{}
	params.Set("text", text)
	params.Set("speaker_id", voice)
	params.Set("language_id", language)
	params.Set("style_wav", "")

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tts?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call TTS API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("TTS API returned status %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read TTS response: %w", err)
	}
	return audio, nil
}
