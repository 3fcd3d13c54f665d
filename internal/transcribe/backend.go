// Package transcribe provides the speech-to-text port and its OpenAI
// implementation. Backends accept a local audio file and return the full
// transcript text synchronously.
package transcribe

import "context"

// Known transcription model identifiers for the OpenAI backend.
const (
	ModelWhisper1  = "whisper-1"
	ModelGPT4oMini = "gpt-4o-mini-transcribe"
	DefaultModel   = ModelWhisper1
)

// Backend is a pluggable transcription backend.
type Backend interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
