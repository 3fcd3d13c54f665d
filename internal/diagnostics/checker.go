// Package diagnostics validates external tools and filesystem paths
// before a job runs, so failures surface as a readable preflight report
// instead of mid-pipeline ffmpeg errors.
package diagnostics

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"media-clipper/internal/config"
	"media-clipper/internal/domain"
)

// Checker validates external tools and required filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	getenv     func(string) string
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		getenv:     os.Getenv,
	}
}

// Run executes all preflight checks and returns a combined report. A
// missing API key is a warning, not a failure: segment export still works
// without transcription.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool("ffmpeg", settings.FFmpegPath),
		c.checkTool("ffprobe", settings.FFprobePath),
		c.checkAPIKey(),
		c.checkOutputRoot(settings.OutputRoot),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a required executable: a configured path containing a
// separator is checked on disk, a bare name is resolved through PATH.
func (c *Checker) checkTool(name, configured string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "tool_" + name,
		Name: name,
	}

	target := strings.TrimSpace(configured)
	if target == "" {
		target = name
	}

	if strings.ContainsRune(target, os.PathSeparator) {
		if _, err := c.stat(target); err != nil {
			item.Status = domain.DiagnosticStatusFail
			item.Message = fmt.Sprintf("Configured binary not found: %s", target)
			item.Hint = "Fix the configured path or remove it to resolve the tool through PATH."
			return item
		}
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Found at %s", target)
		return item
	}

	path, err := c.lookPath(target)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Tool not found in PATH: %s", target)
		item.Hint = "Install it and ensure the binary is available on PATH before running a job."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkAPIKey reports whether transcription credentials are configured.
func (c *Checker) checkAPIKey() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "openai_api_key",
		Name: "OpenAI API key",
	}

	if strings.TrimSpace(c.getenv(config.EnvAPIKey)) == "" {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = config.EnvAPIKey + " is not set."
		item.Hint = "Transcription will fail without it; segment export still works. Set the key in the environment or a .env file."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = config.EnvAPIKey + " is set."
	return item
}

// checkOutputRoot validates output root existence and write access.
func (c *Checker) checkOutputRoot(outputRoot string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_root",
		Name: "Output root",
	}

	if strings.TrimSpace(outputRoot) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output root is empty."
		item.Hint = "Set a directory where job output directories can be created."
		return item
	}

	if err := c.mkdirAll(outputRoot, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output root: %s", outputRoot)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputRoot, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output root is not writable: %s", outputRoot)
		item.Hint = "Choose a writable directory for job artifacts."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputRoot)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	getenv func(string) string,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
		getenv:     getenv,
	}
}
