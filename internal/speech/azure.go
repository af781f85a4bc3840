package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/polyglot-functions/internal/audio"
	"github.com/tjfontaine/polyglot-functions/internal/config"
)

const (
	recognitionPath    = "/speech/recognition/conversation/cognitiveservices/v1"
	subscriptionHeader = "Ocp-Apim-Subscription-Key"
	pcmContentType     = "audio/wav; codecs=audio/pcm; samplerate=16000"
	maxErrorBody       = 4 << 10
)

// Recognition statuses returned by the short-audio REST API.
const (
	StatusSuccess               = "Success"
	StatusNoMatch               = "NoMatch"
	StatusInitialSilenceTimeout = "InitialSilenceTimeout"
	StatusBabbleTimeout         = "BabbleTimeout"
	StatusError                 = "Error"
)

// AzureClient calls the Azure Speech short-audio recognition endpoint.
type AzureClient struct {
	endpoint string
	apiKey   string
	language string
	client   *http.Client
}

// Option configures an AzureClient.
type Option func(*AzureClient)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *AzureClient) {
		c.client = client
	}
}

// NewAzureClient creates a client from the speech configuration. Missing
// credentials are reported by Recognize, not here, so the host can start
// without them.
func NewAzureClient(cfg config.SpeechConfig, opts ...Option) *AzureClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	language := cfg.Language
	if language == "" {
		language = "en-US"
	}

	c := &AzureClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		language: language,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type recognitionResult struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

// Recognize streams the PCM, framed as a WAV file, to the service with
// chunked transfer encoding and returns the recognized text.
func (c *AzureClient) Recognize(ctx context.Context, pcm []byte) (string, error) {
	if c.endpoint == "" || c.apiKey == "" {
		return "", ErrNotConfigured
	}

	target, err := recognitionURL(c.endpoint, c.language)
	if err != nil {
		return "", err
	}

	// A plain io.Reader body leaves ContentLength unknown, so the request
	// goes out chunked.
	body := io.MultiReader(bytes.NewReader(audio.WAVHeader(len(pcm))), bytes.NewReader(pcm))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(subscriptionHeader, c.apiKey)
	req.Header.Set("Content-Type", pcmContentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("speech service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result recognitionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode speech response: %w", err)
	}

	switch result.RecognitionStatus {
	case StatusSuccess:
		return result.DisplayText, nil
	case StatusNoMatch, StatusInitialSilenceTimeout, StatusBabbleTimeout:
		return "", nil
	case StatusError:
		return "", ErrRecognition
	default:
		return "", fmt.Errorf("speech recognition failed with status %q", result.RecognitionStatus)
	}
}

// recognitionURL derives the REST URL from the configured endpoint. A bare
// regional or resource endpoint gets the recognition path appended; an
// endpoint that already names a path is used as is. wss:// endpoints meant
// for the streaming SDK are mapped to https://.
func recognitionURL(endpoint, language string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("invalid speech endpoint: %w", err)
	}

	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	case "ws":
		u.Scheme = "http"
	case "https", "http":
	default:
		return "", fmt.Errorf("invalid speech endpoint %q: unsupported scheme", endpoint)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid speech endpoint %q: missing host", endpoint)
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = recognitionPath
		// Custom-domain resource endpoints route speech under /stt.
		if strings.HasSuffix(u.Hostname(), ".cognitiveservices.azure.com") {
			u.Path = "/stt" + recognitionPath
		}
	}

	q := u.Query()
	if q.Get("language") == "" {
		q.Set("language", language)
	}
	q.Set("format", "simple")
	u.RawQuery = q.Encode()

	return u.String(), nil
}
