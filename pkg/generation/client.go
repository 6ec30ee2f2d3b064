// Package generation wraps the opaque external image-generation service
// behind a single-call contract. The service is non-deterministic by nature;
// callers must treat every error as the signal to run the local transform
// fallback.
package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RyanBlaney/sonovision/pkg/logging"
)

// Client calls the external image-generation endpoint
type Client struct {
	client    *http.Client
	endpoint  string
	apiKey    string
	userAgent string
	logger    logging.Logger
}

// Config contains configuration for the generation client
type Config struct {
	Endpoint  string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
	Logger    logging.Logger
}

// DefaultConfig returns sensible defaults for the generation client
func DefaultConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		UserAgent: "sonovision/1.0",
	}
}

// NewClient creates a generation client with the given configuration
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	client := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:       10,
			IdleConnTimeout:    30 * time.Second,
			DisableCompression: false,
		},
	}

	return &Client{
		client:    client,
		endpoint:  config.Endpoint,
		apiKey:    config.APIKey,
		userAgent: config.UserAgent,
		logger: logger.WithFields(logging.Fields{
			"component": "generation_client",
		}),
	}
}

type generateRequest struct {
	Prompt         string `json:"prompt"`
	ReferenceImage string `json:"reference_image,omitempty"`
}

type generateResponse struct {
	Image string `json:"image"`
}

// GenerateImage performs exactly one generation call. The reference image is
// optional. Failures map onto the transient error taxonomy: 429 to
// RateLimited, 5xx and transport errors to ServiceUnavailable, undecodable
// bodies to InvalidResponse. No retries happen at this layer.
func (c *Client) GenerateImage(ctx context.Context, prompt string, reference []byte) ([]byte, error) {
	payload := generateRequest{Prompt: prompt}
	if len(reference) > 0 {
		payload.ReferenceImage = base64.StdEncoding.EncodeToString(reference)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewGenerationError(ErrCodeInvalidResponse, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewGenerationError(ErrCodeServiceUnavailable, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewGenerationError(ErrCodeServiceUnavailable, "generation request failed", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Generation request completed", logging.Fields{
		"status":     resp.StatusCode,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewGenerationError(ErrCodeRateLimited,
			"generation service rate limit exceeded", nil)
	case resp.StatusCode >= 500:
		return nil, NewGenerationError(ErrCodeServiceUnavailable,
			fmt.Sprintf("generation service returned %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, NewGenerationError(ErrCodeInvalidResponse,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewGenerationError(ErrCodeInvalidResponse, "failed to read response body", err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, NewGenerationError(ErrCodeInvalidResponse, "response is not valid JSON", err)
	}
	if strings.TrimSpace(decoded.Image) == "" {
		return nil, NewGenerationError(ErrCodeInvalidResponse, "response contains no image", nil)
	}

	imageBytes, err := base64.StdEncoding.DecodeString(decoded.Image)
	if err != nil {
		return nil, NewGenerationError(ErrCodeInvalidResponse, "image payload is not valid base64", err)
	}
	return imageBytes, nil
}
