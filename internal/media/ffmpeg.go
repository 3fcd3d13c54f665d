// Package media wraps the external ffmpeg/ffprobe binaries behind typed
// operations: duration probing, full-audio extraction for transcription,
// and re-encoded audio/video range extraction for segment export.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// OpError is an operation-aware error with optional command context.
type OpError struct {
	Op         string     `json:"op"`
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

// Error formats media operation failures for logs.
func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Op,
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Ops invokes ffmpeg/ffprobe for all media operations. All extraction
// methods create parent directories of the output path before running and
// overwrite any existing output file.
type Ops struct {
	ffmpegPath  string
	ffprobePath string
	runner      commandRunner
	stat        func(name string) (os.FileInfo, error)
	mkdirAll    func(path string, perm os.FileMode) error

	// OnLog, when set, receives a CommandLog for every invocation.
	OnLog func(log CommandLog)
}

// NewOps constructs the production adapter with OS dependencies.
// Empty binary paths fall back to PATH lookup names.
func NewOps(ffmpegPath, ffprobePath string) *Ops {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	if strings.TrimSpace(ffprobePath) == "" {
		ffprobePath = "ffprobe"
	}
	return &Ops{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		runner:      &execRunner{},
		stat:        os.Stat,
		mkdirAll:    os.MkdirAll,
	}
}

// ProbeDuration returns the container duration of a media file in seconds.
func (o *Ops) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := buildProbeArgs(path)
	result, runErr := o.runner.Run(ctx, o.ffprobePath, args...)
	log := o.emit("probe", args, result)
	if runErr != nil {
		return 0, &OpError{
			Op:         "probe",
			Message:    fmt.Sprintf("ffprobe failed for %s", path),
			CommandLog: log,
			Err:        runErr,
		}
	}

	raw := strings.TrimSpace(result.Stdout)
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &OpError{
			Op:         "probe",
			Message:    fmt.Sprintf("unparseable duration %q for %s", raw, path),
			CommandLog: log,
			Err:        err,
		}
	}
	return seconds, nil
}

// ExtractFullAudio extracts the entire audio track as 16 kHz mono 16-bit
// PCM WAV, the accepted input format of the transcription backend.
func (o *Ops) ExtractFullAudio(ctx context.Context, videoPath, outPath string) (string, error) {
	return o.runExtraction(ctx, "extract_full_audio", outPath, buildFullAudioArgs(videoPath, outPath))
}

// ExtractAudioRange re-encodes [start, end) of the input as 192 kbps MP3.
// Timestamps are HH:MM:SS strings passed verbatim as trim boundaries.
func (o *Ops) ExtractAudioRange(ctx context.Context, inputPath, start, end, outPath string) (string, error) {
	return o.runExtraction(ctx, "extract_audio_range", outPath, buildAudioRangeArgs(inputPath, start, end, outPath))
}

// ExtractVideoRange re-encodes [start, end) of the video as H.264/AAC MP4
// at 1000k video / 192k audio bitrate.
func (o *Ops) ExtractVideoRange(ctx context.Context, videoPath, start, end, outPath string) (string, error) {
	return o.runExtraction(ctx, "extract_video_range", outPath, buildVideoRangeArgs(videoPath, start, end, outPath))
}

// GenerateTestPattern renders an SMPTE-bars video with a sine tone so demo
// jobs can run without real footage. Unlike the extraction methods it does
// not overwrite an existing file.
func (o *Ops) GenerateTestPattern(ctx context.Context, outPath string, durationSec int) (string, error) {
	if _, err := o.stat(outPath); err == nil {
		return outPath, nil
	}
	return o.runExtraction(ctx, "generate_test_pattern", outPath, buildTestPatternArgs(outPath, durationSec))
}

// runExtraction creates the output parent directory, runs ffmpeg, and
// verifies the output file exists before reporting success.
func (o *Ops) runExtraction(ctx context.Context, op, outPath string, args []string) (string, error) {
	if dir := filepath.Dir(outPath); dir != "" && dir != "." {
		if err := o.mkdirAll(dir, 0o755); err != nil {
			return "", &OpError{
				Op:      op,
				Message: fmt.Sprintf("cannot create output directory: %s", dir),
				Err:     err,
			}
		}
	}

	result, runErr := o.runner.Run(ctx, o.ffmpegPath, args...)
	log := o.emit(op, args, result)
	if runErr != nil {
		return "", &OpError{
			Op:         op,
			Message:    "ffmpeg invocation failed",
			CommandLog: log,
			Err:        runErr,
		}
	}

	if _, err := o.stat(outPath); err != nil {
		return "", &OpError{
			Op:         op,
			Message:    "ffmpeg completed but output file is missing",
			CommandLog: log,
			Err:        err,
		}
	}
	return outPath, nil
}

// emit builds the command log and forwards it to the configured sink.
func (o *Ops) emit(op string, args []string, result commandResult) CommandLog {
	log := CommandLog{
		Command:  o.ffmpegPath,
		Args:     args,
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
	if op == "probe" {
		log.Command = o.ffprobePath
	}
	if o.OnLog != nil {
		o.OnLog(log)
	}
	return log
}

// buildProbeArgs builds ffprobe args printing only the format duration.
func buildProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

// buildFullAudioArgs builds CLI args for mono 16k PCM WAV output.
func buildFullAudioArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

// buildAudioRangeArgs builds CLI args for a 192k MP3 trim. Seeking flags
// precede -i so the boundaries apply to the input stream.
func buildAudioRangeArgs(inputPath, start, end, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-ss", start,
		"-to", end,
		"-i", inputPath,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", "192k",
		outPath,
	}
}

// buildVideoRangeArgs builds CLI args for an H.264/AAC MP4 trim.
func buildVideoRangeArgs(videoPath, start, end, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-ss", start,
		"-to", end,
		"-i", videoPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:v", "1000k",
		"-b:a", "192k",
		outPath,
	}
}

// buildTestPatternArgs builds CLI args rendering SMPTE bars plus a 440 Hz
// tone via the lavfi virtual input device.
func buildTestPatternArgs(outPath string, durationSec int) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("smptehdbars=size=320x240:duration=%d:rate=30", durationSec),
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=440:duration=%d", durationSec),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:v", "100k",
		"-b:a", "64k",
		"-shortest",
		outPath,
	}
}

// NewOpsForTests constructs an adapter with injectable dependencies.
func NewOpsForTests(
	ffmpegPath string,
	ffprobePath string,
	runner commandRunner,
	stat func(name string) (os.FileInfo, error),
	mkdirAll func(path string, perm os.FileMode) error,
) *Ops {
	return &Ops{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		runner:      runner,
		stat:        stat,
		mkdirAll:    mkdirAll,
	}
}
