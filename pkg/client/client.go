// Package client provides the public API for calling the functions over HTTP.
// This is the stable API for external consumers.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBaseURL is the address of a locally running host.
const DefaultBaseURL = "http://localhost:7071/api"

// StatusError is a non-200 response. Body holds the message the function
// returned, e.g. "Please provide a valid string.".
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("function returned status %d: %s", e.StatusCode, e.Body)
}

// Client calls the functions of one host.
type Client struct {
	baseURL     string
	functionKey string
	http        *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithFunctionKey sends key in the x-functions-key header.
func WithFunctionKey(key string) Option {
	return func(c *Client) {
		c.functionKey = key
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// New creates a Client for the host serving functions under baseURL.
// An empty baseURL means DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   2 * time.Minute,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Factorial returns the factorial message for n.
func (c *Client) Factorial(ctx context.Context, n int64) (string, error) {
	body, err := c.post(ctx, "get_factorial", map[string]any{"number": n})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// CountTokens returns the token count message for text.
func (c *Client) CountTokens(ctx context.Context, text string) (string, error) {
	body, err := c.post(ctx, "get_tokens_number", map[string]any{"string": text})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// TransformImage sends an encoded image and returns the grayscale PNG.
func (c *Client) TransformImage(ctx context.Context, image []byte) ([]byte, error) {
	body, err := c.post(ctx, "transform_image", map[string]any{
		"image": base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode transform_image response: %w", err)
	}
	png, err := base64.StdEncoding.DecodeString(resp.Image)
	if err != nil {
		return nil, fmt.Errorf("decode transform_image payload: %w", err)
	}
	return png, nil
}

// SpeechToText sends 16 kHz mono signed 16-bit PCM without a RIFF header
// and returns the transcript.
func (c *Client) SpeechToText(ctx context.Context, pcm []byte) (string, error) {
	body, err := c.post(ctx, "speech_to_text", map[string]any{
		"speech": base64.StdEncoding.EncodeToString(pcm),
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode speech_to_text response: %w", err)
	}
	return resp.Text, nil
}

func (c *Client) post(ctx context.Context, function string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint, err := url.JoinPath(c.baseURL, function)
	if err != nil {
		return nil, fmt.Errorf("build %s url: %w", function, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.functionKey != "" {
		req.Header.Set("x-functions-key", c.functionKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", function, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", function, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
