// Package transcription is the thin boundary to an external speech-to-
// text HTTP service. The Composition Planner never imports this
// package directly; the AudioMerger produces the merged WAV and a
// timing.Model, and a caller wires them through this client to obtain
// timeline-aligned transcript segments.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/GCUGrayArea/clipforge/internal/config"
)

// ErrMissingAPIKey is returned when the transcription API key
// environment variable is unset — a user-visible failure distinct from
// any planner.Error.
var ErrMissingAPIKey = fmt.Errorf("transcription: %s is not set", config.TranscriptionAPIKeyEnv)

// Segment is one raw transcript span in audio-domain time, before
// timing.RemapSegments translates it back to timeline time.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Client uploads a merged audio file and returns its transcript.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

// New constructs a Client reading its API key from the environment.
// It returns ErrMissingAPIKey immediately rather than deferring the
// failure to the first request, since a missing key can never succeed.
func New(endpoint string) (*Client, error) {
	if _, ok := config.TranscriptionAPIKey(); !ok {
		return nil, ErrMissingAPIKey
	}
	return &Client{Endpoint: endpoint, HTTPClient: http.DefaultClient}, nil
}

// Transcribe uploads the WAV at wavPath and returns its segments.
func (c *Client) Transcribe(ctx context.Context, wavPath string) ([]Segment, error) {
	apiKey, ok := config.TranscriptionAPIKey()
	if !ok {
		return nil, ErrMissingAPIKey
	}

	f, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("transcription: open %s: %w", wavPath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", "timeline_audio.wav")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcription: status %d: %s", resp.StatusCode, string(b))
	}

	var out struct {
		Segments []Segment `json:"segments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("transcription: decode response: %w", err)
	}
	return out.Segments, nil
}
