// Package synth renders prompts to audio through the ElevenLabs API.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/h2non/filetype"

	"github.com/ShayCichocki/sfxagent/internal/audio"
)

// API paths.
const (
	pathSoundGeneration = "/v1/sound-generation"
	pathTextToSpeech    = "/v1/text-to-speech/"
)

// HTTP headers.
const (
	headerAPIKey      = "xi-api-key"
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// Endpoints.
const (
	EndpointSoundGeneration = "sound_generation"
	EndpointTextToSpeech    = "text_to_speech"
)

// Defaults.
const (
	DefaultBaseURL    = "https://api.elevenlabs.io"
	DefaultSampleRate = 44100
	FormatWAV         = "wav"
	defaultTimeout    = 2 * time.Minute
)

// SynthesisError is returned when a render fails. Status is the HTTP status
// code, or zero when no response was received.
type SynthesisError struct {
	Status  int
	Message string
	Err     error
}

func (e *SynthesisError) Error() string {
	var b strings.Builder
	b.WriteString("synthesis failed")
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient: rate limiting, a
// server error, or a transport failure that was not a cancellation.
func (e *SynthesisError) Retryable() bool {
	switch {
	case e.Status == http.StatusTooManyRequests, e.Status >= 500:
		return true
	case e.Status == 0 && e.Err != nil:
		return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	}
	return false
}

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	// Endpoint is EndpointSoundGeneration or EndpointTextToSpeech.
	Endpoint string
	// SampleRate of the requested PCM stream.
	SampleRate int
	HTTPClient *http.Client
}

// Request is one synthesis call.
type Request struct {
	Prompt    string
	Duration  float64
	Influence float64
	Voice     string
	Model     string
	Format    string
}

// Client talks to ElevenLabs. It is stateless across calls and safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	endpoint   string
	sampleRate int
}

// NewClient creates a Client, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	c := &Client{
		httpClient: cfg.HTTPClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		endpoint:   cfg.Endpoint,
		sampleRate: cfg.SampleRate,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.endpoint == "" {
		c.endpoint = EndpointSoundGeneration
	}
	if c.sampleRate <= 0 {
		c.sampleRate = DefaultSampleRate
	}
	return c
}

type soundGenerationBody struct {
	Text            string   `json:"text"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	PromptInfluence float64  `json:"prompt_influence"`
	ModelID         string   `json:"model_id,omitempty"`
}

type textToSpeechBody struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// Synthesize renders req and returns WAV bytes.
func (c *Client) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if req.Format == "" {
		req.Format = FormatWAV
	}
	if !strings.EqualFold(req.Format, FormatWAV) {
		return nil, &SynthesisError{Message: fmt.Sprintf("unsupported output format %q", req.Format)}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &SynthesisError{Message: "prompt cannot be empty"}
	}

	path, body, err := c.buildRequest(req)
	if err != nil {
		return nil, err
	}

	data, err := c.do(ctx, path, body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &SynthesisError{Message: "received empty audio data"}
	}
	if audio.IsWAV(data) {
		return data, nil
	}
	if filetype.IsAudio(data) {
		kind, _ := filetype.Match(data)
		return nil, &SynthesisError{Message: fmt.Sprintf("unexpected audio container %q", kind.Extension)}
	}

	out, err := audio.WrapPCM16(data, c.sampleRate, 1)
	if err != nil {
		return nil, &SynthesisError{Message: "failed to wrap PCM", Err: err}
	}
	return out, nil
}

func (c *Client) buildRequest(req Request) (string, any, error) {
	switch c.endpoint {
	case EndpointSoundGeneration:
		body := soundGenerationBody{
			Text:            req.Prompt,
			PromptInfluence: req.Influence,
			ModelID:         req.Model,
		}
		if req.Duration > 0 {
			d := req.Duration
			body.DurationSeconds = &d
		}
		return pathSoundGeneration, body, nil
	case EndpointTextToSpeech:
		if req.Voice == "" {
			return "", nil, &SynthesisError{Message: "voice is required for text_to_speech"}
		}
		return pathTextToSpeech + url.PathEscape(req.Voice), textToSpeechBody{Text: req.Prompt, ModelID: req.Model}, nil
	default:
		return "", nil, &SynthesisError{Message: fmt.Sprintf("unknown endpoint %q", c.endpoint)}
	}
}

func (c *Client) do(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &SynthesisError{Message: "failed to marshal request", Err: err}
	}

	u := c.baseURL + path + "?output_format=" + url.QueryEscape(fmt.Sprintf("pcm_%d", c.sampleRate))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, &SynthesisError{Message: "failed to create request", Err: err}
	}
	httpReq.Header.Set(headerContentType, contentTypeJSON)
	if c.apiKey != "" {
		httpReq.Header.Set(headerAPIKey, c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &SynthesisError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SynthesisError{Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SynthesisError{Status: resp.StatusCode, Message: errorDetail(data)}
	}
	return data, nil
}

// errorDetail extracts the service's message from an error body. The
// detail field is either a string or an object with a message.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Detail) > 0 {
		var s string
		if json.Unmarshal(parsed.Detail, &s) == nil {
			return s
		}
		var obj struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		if json.Unmarshal(parsed.Detail, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
