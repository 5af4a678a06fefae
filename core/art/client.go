package art

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"podforge/logger"
)

// Config contains configuration for the image-generation client.
type Config struct {
	APIBaseURL string
	Token      string
	// Model is the version hash of the diffusion model to run.
	Model string
}

// Client calls the Replicate predictions API to generate cover images.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates an image-generation client.
func NewClient(config *Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 300 * time.Second, // 图像生成是同步等待的，超时放宽
		},
	}
}

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	Prompt string `json:"prompt"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Generate runs the model for the given prompt and returns the image bytes.
// A (nil, nil) return means the provider produced no image; callers decide
// how to react to an empty result.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	reqBody := predictionRequest{
		Version: c.config.Model,
		Input:   predictionInput{Prompt: prompt},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.APIBaseURL+"/predictions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.config.Token)
	// 同步等待模式，避免轮询 prediction 状态
	req.Header.Set("Prefer", "wait")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call image API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("image API returned status %d: %s", resp.StatusCode, string(body))
	}

	var prediction predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("failed to decode prediction response: %w", err)
	}

	imageURL := firstOutputURL(prediction.Output)
	if prediction.Status != "succeeded" || imageURL == "" {
		logger.Warn("[Art] 图像生成未返回结果",
			logger.String("status", prediction.Status),
			logger.String("error", prediction.Error))
		return nil, nil
	}

	return c.download(ctx, imageURL)
}

// firstOutputURL extracts the first URL from the prediction output, which is
// either a JSON string or a list of strings depending on the model.
func firstOutputURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		return list[0]
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	return ""
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	return data, nil
}
