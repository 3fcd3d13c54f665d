package job

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"media-clipper/internal/domain"
	"media-clipper/internal/transcribe"
)

// transcriptOutcome carries the transcription step result into error
// consolidation. ok is true when the backend returned text (possibly
// empty); saveErr is set when the text could not be persisted.
type transcriptOutcome struct {
	text      string
	ok        bool
	savedPath string
	saveErr   error
	stepErr   error
}

// transcribe extracts the full audio track into a deterministic temp path,
// calls the transcription backend, and persists transcript.txt. The temp
// audio file is removed after the backend call regardless of outcome, and
// temp_audio/ is removed only when the deletion leaves it empty.
func (r *Runner) transcribe(ctx context.Context, videoPath, outputDir string) transcriptOutcome {
	base := filepath.Base(videoPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	tempDir := filepath.Join(outputDir, "temp_audio")
	tempAudioPath := filepath.Join(tempDir, name+"_whisper_input.wav")

	r.emitStage(domain.JobStatusPreprocessing)
	r.logger.Info("starting transcription", "video", videoPath, "temp_audio", tempAudioPath)

	extracted, err := r.media.ExtractFullAudio(ctx, videoPath, tempAudioPath)
	if err != nil || !r.fileExists(extracted) {
		if err == nil {
			err = errors.New("extracted audio file is missing")
		}
		r.logger.Error("audio extraction failed, transcription aborted", "video", videoPath, "err", err)
		return transcriptOutcome{stepErr: err}
	}

	defer r.cleanupTempAudio(extracted, tempDir)

	r.emitStage(domain.JobStatusTranscribing)
	text, err := r.backend.Transcribe(ctx, extracted)
	if err != nil {
		if errors.Is(err, transcribe.ErrMissingAPIKey) {
			r.logger.Error("transcription skipped: no API key configured")
		} else {
			r.logger.Error("transcription backend call failed", "err", err)
		}
		return transcriptOutcome{stepErr: err}
	}

	outcome := transcriptOutcome{text: text, ok: true}
	transcriptPath := filepath.Join(outputDir, "transcript.txt")
	if err := r.writeFile(transcriptPath, []byte(text), 0o644); err != nil {
		r.logger.Error("failed to save transcript", "path", transcriptPath, "err", err)
		outcome.saveErr = err
		return outcome
	}

	r.logger.Info("transcript saved", "path", transcriptPath)
	outcome.savedPath = transcriptPath
	return outcome
}

// cleanupTempAudio removes the temporary WAV and then the temp directory,
// but only if the directory is left empty. Never force-removes directories
// holding other content.
func (r *Runner) cleanupTempAudio(audioPath, tempDir string) {
	if err := r.remove(audioPath); err != nil {
		r.logger.Warn("failed to remove temp audio file", "path", audioPath, "err", err)
		return
	}
	entries, err := r.readDir(tempDir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := r.remove(tempDir); err != nil {
		r.logger.Warn("failed to remove temp audio directory", "path", tempDir, "err", err)
	}
}
