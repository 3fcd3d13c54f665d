package diagnostics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"media-clipper/internal/domain"
)

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		func(string) string { return "sk-test" },
	)

	report := checker.Run(domain.Settings{
		OutputRoot:  filepath.Join(root, "outputs"),
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
	})

	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
}

// TestCheckerRunMissingToolsAndPaths validates failure reporting.
func TestCheckerRunMissingToolsAndPaths(t *testing.T) {
	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not found") },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		func(string) string { return "" },
	)

	report := checker.Run(domain.Settings{OutputRoot: ""})

	if !report.HasFailures {
		t.Fatal("expected failures")
	}

	assertStatusByID(t, report, "tool_ffmpeg", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "tool_ffprobe", domain.DiagnosticStatusFail)
	assertStatusByID(t, report, "output_root", domain.DiagnosticStatusFail)
}

// TestCheckerMissingAPIKeyWarnsWithoutFailing validates the degraded mode:
// segment export works without transcription credentials.
func TestCheckerMissingAPIKeyWarnsWithoutFailing(t *testing.T) {
	root := t.TempDir()
	checker := NewCheckerForTests(
		func(name string) (string, error) { return "/usr/local/bin/" + name, nil },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		func(string) string { return "" },
	)

	report := checker.Run(domain.Settings{OutputRoot: filepath.Join(root, "outputs")})

	assertStatusByID(t, report, "openai_api_key", domain.DiagnosticStatusWarn)
	if report.HasFailures {
		t.Fatalf("warning should not count as failure: %+v", report.Items)
	}
}

// TestCheckerConfiguredBinaryPath validates explicit path checking.
func TestCheckerConfiguredBinaryPath(t *testing.T) {
	root := t.TempDir()
	binary := filepath.Join(root, "bin", "ffmpeg")
	if err := os.MkdirAll(filepath.Dir(binary), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(binary, []byte("#!/bin/sh"), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}

	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("lookPath must not be used") },
		os.Stat,
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
		func(string) string { return "sk-test" },
	)

	report := checker.Run(domain.Settings{
		OutputRoot:  filepath.Join(root, "outputs"),
		FFmpegPath:  binary,
		FFprobePath: filepath.Join(root, "bin", "missing-ffprobe"),
	})

	assertStatusByID(t, report, "tool_ffmpeg", domain.DiagnosticStatusPass)
	assertStatusByID(t, report, "tool_ffprobe", domain.DiagnosticStatusFail)
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			if item.Status != want {
				t.Fatalf("item %s: got %s, want %s", id, item.Status, want)
			}
			return
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
}
