package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeRunner simulates command execution order and outcomes.
type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) (commandResult, error)
}

// Run delegates to injected behavior.
func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	if f.run == nil {
		return commandResult{}, nil
	}
	return f.run(ctx, name, args...)
}

// TestProbeDurationParsesSeconds checks the ffprobe output parse path.
func TestProbeDurationParsesSeconds(t *testing.T) {
	var probedName string
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			probedName = name
			return commandResult{Stdout: "25.433000\n"}, nil
		},
	}

	ops := NewOpsForTests("ffmpeg", "ffprobe-custom", runner, os.Stat, os.MkdirAll)
	seconds, err := ops.ProbeDuration(context.Background(), "/in.mp4")
	if err != nil {
		t.Fatalf("ProbeDuration() error = %v", err)
	}
	if probedName != "ffprobe-custom" {
		t.Fatalf("probe command = %q, want ffprobe-custom", probedName)
	}
	if seconds != 25.433 {
		t.Fatalf("duration = %v, want 25.433", seconds)
	}
}

// TestProbeDurationUnparseableOutput checks garbage ffprobe output handling.
func TestProbeDurationUnparseableOutput(t *testing.T) {
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			return commandResult{Stdout: "N/A"}, nil
		},
	}

	ops := NewOpsForTests("ffmpeg", "ffprobe", runner, os.Stat, os.MkdirAll)
	_, err := ops.ProbeDuration(context.Background(), "/in.mp4")
	if err == nil {
		t.Fatal("expected error")
	}

	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("error type = %T, want *OpError", err)
	}
	if opErr.Op != "probe" {
		t.Fatalf("op = %s, want probe", opErr.Op)
	}
}

// TestExtractFullAudioSuccess checks parent creation and existence check.
func TestExtractFullAudioSuccess(t *testing.T) {
	root := t.TempDir()
	outPath := filepath.Join(root, "temp_audio", "clip_whisper_input.wav")

	var gotArgs []string
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			gotArgs = append([]string{}, args...)
			mustWriteFile(t, args[len(args)-1], "wav")
			return commandResult{ExitCode: 0}, nil
		},
	}

	ops := NewOpsForTests("ffmpeg", "ffprobe", runner, os.Stat, os.MkdirAll)
	got, err := ops.ExtractFullAudio(context.Background(), "/in.mp4", outPath)
	if err != nil {
		t.Fatalf("ExtractFullAudio() error = %v", err)
	}
	if got != outPath {
		t.Fatalf("out path = %q, want %q", got, outPath)
	}
	if !hasArg(gotArgs, "-vn") {
		t.Fatalf("expected -vn in args: %v", gotArgs)
	}
	if argValue(gotArgs, "-ar") != "16000" {
		t.Fatalf("sample rate = %q, want 16000", argValue(gotArgs, "-ar"))
	}
}

// TestExtractAudioRangeCommandFailure checks the invocation error path.
func TestExtractAudioRangeCommandFailure(t *testing.T) {
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			return commandResult{Stderr: "boom", ExitCode: 1}, errors.New("exit status 1")
		},
	}

	ops := NewOpsForTests("ffmpeg", "ffprobe", runner, os.Stat, os.MkdirAll)
	_, err := ops.ExtractAudioRange(
		context.Background(),
		"/in.mp4",
		"00:00:03", "00:00:08",
		filepath.Join(t.TempDir(), "seg_audio.mp3"),
	)
	if err == nil {
		t.Fatal("expected error")
	}

	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("error type = %T, want *OpError", err)
	}
	if opErr.Op != "extract_audio_range" {
		t.Fatalf("op = %s, want extract_audio_range", opErr.Op)
	}
	if opErr.CommandLog.ExitCode != 1 {
		t.Fatalf("exit code = %d, want 1", opErr.CommandLog.ExitCode)
	}
}

// TestExtractVideoRangeMissingOutput checks the silent-failure guard where
// ffmpeg exits zero without producing the file.
func TestExtractVideoRangeMissingOutput(t *testing.T) {
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			return commandResult{ExitCode: 0}, nil
		},
	}

	ops := NewOpsForTests("ffmpeg", "ffprobe", runner, os.Stat, os.MkdirAll)
	_, err := ops.ExtractVideoRange(
		context.Background(),
		"/in.mp4",
		"00:00:03", "00:00:08",
		filepath.Join(t.TempDir(), "seg_video.mp4"),
	)
	if err == nil {
		t.Fatal("expected error for missing output file")
	}
}

// TestGenerateTestPatternSkipsExisting checks demo media is not overwritten.
func TestGenerateTestPatternSkipsExisting(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "demo.mp4")
	mustWriteFile(t, outPath, "video")

	calls := 0
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			calls++
			return commandResult{}, nil
		},
	}

	ops := NewOpsForTests("ffmpeg", "ffprobe", runner, os.Stat, os.MkdirAll)
	got, err := ops.GenerateTestPattern(context.Background(), outPath, 25)
	if err != nil {
		t.Fatalf("GenerateTestPattern() error = %v", err)
	}
	if got != outPath {
		t.Fatalf("out path = %q, want %q", got, outPath)
	}
	if calls != 0 {
		t.Fatalf("command calls = %d, want 0", calls)
	}
}

// TestOnLogReceivesCommandLog checks the log sink callback.
func TestOnLogReceivesCommandLog(t *testing.T) {
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			mustWriteFile(t, args[len(args)-1], "wav")
			return commandResult{Stdout: "ok"}, nil
		},
	}

	ops := NewOpsForTests("ffmpeg-bin", "ffprobe", runner, os.Stat, os.MkdirAll)
	var logs []CommandLog
	ops.OnLog = func(log CommandLog) { logs = append(logs, log) }

	if _, err := ops.ExtractFullAudio(context.Background(), "/in.mp4", filepath.Join(t.TempDir(), "out.wav")); err != nil {
		t.Fatalf("ExtractFullAudio() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("log count = %d, want 1", len(logs))
	}
	if logs[0].Command != "ffmpeg-bin" {
		t.Fatalf("log command = %q, want ffmpeg-bin", logs[0].Command)
	}
}

// TestBuildAudioRangeArgs verifies input-side seek flags and MP3 encoding.
func TestBuildAudioRangeArgs(t *testing.T) {
	args := buildAudioRangeArgs("/in.mp4", "00:00:03", "00:00:08", "/out.mp3")
	want := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-ss", "00:00:03",
		"-to", "00:00:08",
		"-i", "/in.mp4",
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", "192k",
		"/out.mp3",
	}
	assertArgs(t, args, want)
}

// TestBuildVideoRangeArgs verifies H.264/AAC re-encode parameters.
func TestBuildVideoRangeArgs(t *testing.T) {
	args := buildVideoRangeArgs("/in.mp4", "00:01:00", "00:02:00", "/out.mp4")
	want := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-ss", "00:01:00",
		"-to", "00:02:00",
		"-i", "/in.mp4",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:v", "1000k",
		"-b:a", "192k",
		"/out.mp4",
	}
	assertArgs(t, args, want)
}

// TestBuildFullAudioArgs verifies deterministic WAV extraction arguments.
func TestBuildFullAudioArgs(t *testing.T) {
	args := buildFullAudioArgs("/in.mp4", "/tmp/out.wav")
	want := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", "/in.mp4",
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"/tmp/out.wav",
	}
	assertArgs(t, args, want)
}

// assertArgs compares built CLI arguments element by element.
func assertArgs(t *testing.T, args, want []string) {
	t.Helper()
	if len(args) != len(want) {
		t.Fatalf("args len = %d, want %d (%v)", len(args), len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

// mustWriteFile creates parent directory and writes file content.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir parent: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}

// argValue returns value for key-style CLI args.
func argValue(args []string, key string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == key {
			return args[i+1]
		}
	}
	return ""
}

// hasArg reports whether args include the target flag.
func hasArg(args []string, key string) bool {
	for _, arg := range args {
		if arg == key {
			return true
		}
	}
	return false
}
