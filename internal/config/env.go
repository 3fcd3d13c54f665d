package config

import (
	"bufio"
	"os"
	"strings"

	"media-clipper/internal/domain"
)

// Environment variable names recognized by ApplyEnv and APIKey.
const (
	EnvAPIKey      = "OPENAI_API_KEY"
	EnvOpenAIModel = "OPENAI_MODEL"
	EnvOutputRoot  = "CLIPPER_OUTPUT_ROOT"
	EnvFFmpegBin   = "FFMPEG_BIN"
	EnvFFprobeBin  = "FFPROBE_BIN"
)

// LoadEnvFile loads simple KEY=value lines from the given files into the
// process environment. Missing files are skipped; blank lines and lines
// starting with # are ignored; single or double quotes around the value
// are stripped. Existing environment values are not overwritten.
func LoadEnvFile(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			continue
		}

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			line = strings.TrimPrefix(line, "export ")

			key, value, found := strings.Cut(line, "=")
			if !found {
				continue
			}
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			value = strings.Trim(value, `"'`)
			if key == "" {
				continue
			}
			if _, exists := os.LookupEnv(key); exists {
				continue
			}
			os.Setenv(key, value)
		}
		f.Close()
	}
}

// ApplyEnv overrides settings fields from the process environment.
func ApplyEnv(cfg domain.Settings) domain.Settings {
	if v := os.Getenv(EnvOutputRoot); v != "" {
		cfg.OutputRoot = v
	}
	if v := os.Getenv(EnvFFmpegBin); v != "" {
		cfg.FFmpegPath = v
	}
	if v := os.Getenv(EnvFFprobeBin); v != "" {
		cfg.FFprobePath = v
	}
	if v := os.Getenv(EnvOpenAIModel); v != "" {
		cfg.OpenAIModel = v
	}
	return cfg
}

// APIKey returns the transcription service credential from the
// environment, or "" when transcription should run without one (and fail
// as a step, not as a crash).
func APIKey() string {
	return strings.TrimSpace(os.Getenv(EnvAPIKey))
}
