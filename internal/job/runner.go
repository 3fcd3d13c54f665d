// Package job contains the orchestration core: one job transcribes a
// video's audio track and exports named time-range clips, folding every
// partial failure into a single returned JobResult.
package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"media-clipper/internal/domain"
	"media-clipper/internal/transcribe"
)

const summaryFileName = "job_summary.json"

// MediaOps is the media-processing port consumed by the pipeline.
type MediaOps interface {
	ExtractFullAudio(ctx context.Context, videoPath, outPath string) (string, error)
	ExtractAudioRange(ctx context.Context, inputPath, start, end, outPath string) (string, error)
	ExtractVideoRange(ctx context.Context, videoPath, start, end, outPath string) (string, error)
}

// Runner sequences transcription and segment export for one job at a time.
// Run never returns an error; failures land in JobResult.Error.
type Runner struct {
	media      MediaOps
	backend    transcribe.Backend
	outputRoot string
	logger     *slog.Logger

	// OnStage, when set, receives lifecycle stage notifications.
	OnStage func(status domain.JobStatus)

	stat      func(name string) (os.FileInfo, error)
	mkdirAll  func(path string, perm os.FileMode) error
	writeFile func(name string, data []byte, perm os.FileMode) error
	remove    func(name string) error
	readDir   func(name string) ([]os.DirEntry, error)
}

// NewRunner constructs the production runner. outputRoot is the directory
// under which defaulted job output directories are created.
func NewRunner(media MediaOps, backend transcribe.Backend, outputRoot string, logger *slog.Logger) *Runner {
	if strings.TrimSpace(outputRoot) == "" {
		outputRoot = "outputs"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		media:      media,
		backend:    backend,
		outputRoot: outputRoot,
		logger:     logger,
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		writeFile:  os.WriteFile,
		remove:     os.Remove,
		readDir:    os.ReadDir,
	}
}

// Run executes one job end to end and always returns a JobResult. A missing
// video path short-circuits before any directory is created; every later
// failure is recorded and the job continues with whatever can still succeed.
func (r *Runner) Run(ctx context.Context, req domain.JobRequest) domain.JobResult {
	result := domain.JobResult{
		ExportedAudioSegments: []string{},
		ExportedVideoSegments: []string{},
		VideoPathProcessed:    req.VideoPath,
		JobOutputDirectory:    req.OutputDir,
	}

	if req.VideoPath == "" || !r.fileExists(req.VideoPath) {
		msg := fmt.Sprintf("Error: Video path '%s' not provided or video does not exist.", req.VideoPath)
		r.logger.Error("job rejected", "reason", msg)
		result.Error = &msg
		if req.VideoPath == "" {
			result.VideoPathProcessed = "Not provided"
		}
		return result
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		base := filepath.Base(req.VideoPath)
		outputDir = filepath.Join(r.outputRoot, strings.TrimSuffix(base, filepath.Ext(base))+"_job_output")
		r.logger.Warn("output_dir not specified, using default", "output_dir", outputDir)
	}
	result.JobOutputDirectory = outputDir

	if err := r.mkdirAll(outputDir, 0o755); err != nil {
		r.logger.Error("cannot create job output directory", "dir", outputDir, "err", err)
	}

	transcript := r.transcribe(ctx, req.VideoPath, outputDir)
	if transcript.ok {
		text := transcript.text
		result.TranscriptContent = &text
	}
	if transcript.savedPath != "" {
		saved := transcript.savedPath
		result.TranscriptFile = &saved
	}

	export := exportOutcome{requested: len(req.Segments)}
	if len(req.Segments) > 0 {
		r.emitStage(domain.JobStatusExporting)
		segmentsDir := filepath.Join(outputDir, "segments")
		audio, video := r.exportSegments(ctx, req.VideoPath, req.Segments, segmentsDir)
		result.ExportedAudioSegments = audio
		result.ExportedVideoSegments = video
		export.audioCount = len(audio)
		export.videoCount = len(video)
		r.logger.Info("segment export complete",
			"audio", len(audio),
			"video", len(video),
			"requested", len(req.Segments),
		)
	} else {
		r.logger.Info("no segments specified, skipping segment export")
	}

	if msg := consolidateError(transcript, export); msg != "" {
		result.Error = &msg
	}

	// Best effort: the summary is written before its own path is known, so
	// the on-disk file carries job_status_file: null while the returned
	// result carries the path.
	summaryPath := filepath.Join(outputDir, summaryFileName)
	if err := r.writeSummary(summaryPath, result); err != nil {
		r.logger.Error("failed to save job summary", "path", summaryPath, "err", err)
		if result.Error == nil {
			msg := fmt.Sprintf("Failed to save job summary: %v", err)
			result.Error = &msg
		}
	} else {
		r.logger.Info("job summary saved", "path", summaryPath)
		result.JobStatusFile = &summaryPath
	}

	return result
}

// writeSummary serializes the result as pretty-printed UTF-8 JSON.
func (r *Runner) writeSummary(path string, result domain.JobResult) error {
	data, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return err
	}
	return r.writeFile(path, data, 0o644)
}

// exportOutcome summarizes the segment-export step for error consolidation.
type exportOutcome struct {
	requested  int
	audioCount int
	videoCount int
}

// consolidateError folds both step outcomes into the single job error using
// first-match-wins precedence: transcript save failure, then the
// no-transcript family of messages. Returns "" when no error applies.
func consolidateError(transcript transcriptOutcome, export exportOutcome) string {
	if transcript.saveErr != nil {
		return fmt.Sprintf("Failed to save transcript: %v", transcript.saveErr)
	}
	if !transcript.ok {
		switch {
		case export.requested == 0 && export.audioCount == 0 && export.videoCount == 0:
			return "Transcription failed and no segments were requested for export."
		case export.audioCount == 0 && export.videoCount == 0:
			return "Transcription failed and segment export produced no files."
		default:
			return "Transcription failed."
		}
	}
	return ""
}

// emitStage forwards stage updates when a callback is configured.
func (r *Runner) emitStage(status domain.JobStatus) {
	if r.OnStage != nil {
		r.OnStage(status)
	}
}

// fileExists reports whether a path exists on disk.
func (r *Runner) fileExists(path string) bool {
	_, err := r.stat(path)
	return err == nil
}

// NewRunnerForTests constructs a runner with injectable OS dependencies.
func NewRunnerForTests(
	media MediaOps,
	backend transcribe.Backend,
	outputRoot string,
	logger *slog.Logger,
	stat func(name string) (os.FileInfo, error),
	mkdirAll func(path string, perm os.FileMode) error,
	writeFile func(name string, data []byte, perm os.FileMode) error,
) *Runner {
	r := NewRunner(media, backend, outputRoot, logger)
	if stat != nil {
		r.stat = stat
	}
	if mkdirAll != nil {
		r.mkdirAll = mkdirAll
	}
	if writeFile != nil {
		r.writeFile = writeFile
	}
	return r
}
