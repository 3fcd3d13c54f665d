package config

import (
	"media-clipper/internal/domain"
	"media-clipper/internal/transcribe"
)

// DefaultSettings returns baseline local configuration. Defaulted job
// output directories are created under OutputRoot; binary names resolve
// through PATH.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		OutputRoot:  "outputs",
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		OpenAIModel: transcribe.DefaultModel,
	}
}
