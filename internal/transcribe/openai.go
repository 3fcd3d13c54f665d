package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned when the backend is constructed without
// credentials. Callers treat this as a step failure, not a crash.
var ErrMissingAPIKey = errors.New("openai api key is not set")

const defaultBaseURL = "https://api.openai.com/v1"

// APIError is a non-2xx response from the transcription endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

// Error formats the backend failure with its HTTP status.
func (e *APIError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

// OpenAIBackend calls the OpenAI audio/transcriptions endpoint.
type OpenAIBackend struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIBackend constructs a backend for the given credentials. An empty
// model selects DefaultModel.
func NewOpenAIBackend(apiKey, model string) *OpenAIBackend {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &OpenAIBackend{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 60 * time.Minute},
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio file as multipart form data and returns the
// transcript text.
func (b *OpenAIBackend) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if strings.TrimSpace(b.apiKey) == "" {
		return "", ErrMissingAPIKey
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", b.model); err != nil {
		return "", err
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var parsed transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return parsed.Text, nil
}

// NewOpenAIBackendForTests constructs a backend pointed at a test server.
func NewOpenAIBackendForTests(apiKey, model, baseURL string, client *http.Client) *OpenAIBackend {
	b := NewOpenAIBackend(apiKey, model)
	b.baseURL = baseURL
	if client != nil {
		b.client = client
	}
	return b
}
