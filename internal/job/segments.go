package job

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"media-clipper/internal/domain"
)

// exportSegments extracts each requested [start, end) range as an MP3 and
// an MP4 clip, strictly in input order. A segment's failures are logged
// and skipped; they never abort the loop, and the audio and video
// extractions of one segment succeed or fail independently. The returned
// lists hold only outputs confirmed to exist on disk.
func (r *Runner) exportSegments(ctx context.Context, videoPath string, segments []domain.SegmentSpec, outputDir string) ([]string, []string) {
	audioPaths := []string{}
	videoPaths := []string{}

	if !r.fileExists(videoPath) {
		r.logger.Error("video file not found, skipping segment export", "video", videoPath)
		return audioPaths, videoPaths
	}

	if err := r.mkdirAll(outputDir, 0o755); err != nil {
		r.logger.Error("cannot create segments directory", "dir", outputDir, "err", err)
		return audioPaths, videoPaths
	}

	base := filepath.Base(videoPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	for i, seg := range segments {
		idx := i + 1
		if seg.Start == "" || seg.End == "" {
			r.logger.Warn("segment missing start or end time, skipping", "segment", idx)
			continue
		}

		stem := segmentStem(name, idx, seg)
		r.logger.Info("exporting segment", "segment", idx, "start", seg.Start, "end", seg.End)

		audioOut := filepath.Join(outputDir, stem+"_audio.mp3")
		if path, err := r.media.ExtractAudioRange(ctx, videoPath, seg.Start, seg.End, audioOut); err == nil && r.fileExists(path) {
			audioPaths = append(audioPaths, path)
		} else {
			r.logger.Warn("failed to export audio segment", "segment", idx, "err", err)
		}

		videoOut := filepath.Join(outputDir, stem+"_video.mp4")
		if path, err := r.media.ExtractVideoRange(ctx, videoPath, seg.Start, seg.End, videoOut); err == nil && r.fileExists(path) {
			videoPaths = append(videoPaths, path)
		} else {
			r.logger.Warn("failed to export video segment", "segment", idx, "err", err)
		}
	}

	return audioPaths, videoPaths
}

// segmentStem derives the filesystem-safe shared filename stem for one
// segment: source name, 1-based index, and timestamps with ":" replaced.
func segmentStem(name string, idx int, seg domain.SegmentSpec) string {
	safeStart := strings.ReplaceAll(seg.Start, ":", "-")
	safeEnd := strings.ReplaceAll(seg.End, ":", "-")
	return fmt.Sprintf("%s_segment_%d_%s_%s", name, idx, safeStart, safeEnd)
}
