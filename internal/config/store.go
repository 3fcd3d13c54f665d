package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"media-clipper/internal/domain"
)

// Store defines persistence operations for runner settings. The OpenAI
// API key is deliberately excluded: credentials live only in the process
// environment, never on disk.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// JSONStore persists settings in a single JSON file on disk.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed settings store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads settings from disk or returns defaults when missing. Fields
// left empty in the file fall back to their defaults so a partial config
// never produces an unusable runner.
func (s *JSONStore) Load() (domain.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}

		return domain.Settings{}, err
	}

	cfg := DefaultSettings()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.Settings{}, err
	}
	return fillDefaults(cfg), nil
}

// Save writes settings as indented JSON and creates parent directories.
func (s *JSONStore) Save(cfg domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}

// fillDefaults replaces empty fields with baseline values.
func fillDefaults(cfg domain.Settings) domain.Settings {
	def := DefaultSettings()
	if cfg.OutputRoot == "" {
		cfg.OutputRoot = def.OutputRoot
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = def.FFmpegPath
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = def.FFprobePath
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = def.OpenAIModel
	}
	return cfg
}
