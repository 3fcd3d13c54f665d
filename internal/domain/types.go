package domain

// JobStatus tracks each pipeline stage for a single clip-export job.
type JobStatus string

const (
	JobStatusIdle          JobStatus = "idle"
	JobStatusPreprocessing JobStatus = "preprocessing"
	JobStatusTranscribing  JobStatus = "transcribing"
	JobStatusExporting     JobStatus = "exporting"
	JobStatusDone          JobStatus = "done"
	JobStatusFailed        JobStatus = "failed"
	JobStatusCancelled     JobStatus = "cancelled"
)

// Settings contains operator-selectable runtime configuration.
type Settings struct {
	OutputRoot  string `json:"outputRoot"`
	FFmpegPath  string `json:"ffmpegPath"`
	FFprobePath string `json:"ffprobePath"`
	OpenAIModel string `json:"openaiModel"`
}

// Job stores the current job identity and lifecycle status.
type Job struct {
	ID     string    `json:"id"`
	Status JobStatus `json:"status"`
}

// SegmentSpec is one requested [start, end) time range, both timestamps
// in HH:MM:SS form. A spec missing either field is invalid and skipped.
type SegmentSpec struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// JobRequest describes one clip-export job: transcribe the video's audio
// track and cut the listed segments out of it.
type JobRequest struct {
	VideoPath string        `json:"video_path"`
	Segments  []SegmentSpec `json:"segments"`
	OutputDir string        `json:"output_dir"`
}

// JobResult is built incrementally through the pipeline and serialized
// verbatim as job_summary.json. Pointer fields are nil when the
// corresponding artifact was not produced; slices hold only confirmed
// successes in input order and are never nil so they serialize as [].
type JobResult struct {
	TranscriptContent     *string  `json:"transcript_content"`
	TranscriptFile        *string  `json:"transcript_file"`
	ExportedAudioSegments []string `json:"exported_audio_segments"`
	ExportedVideoSegments []string `json:"exported_video_segments"`
	VideoPathProcessed    string   `json:"video_path_processed"`
	JobOutputDirectory    string   `json:"job_output_directory"`
	JobStatusFile         *string  `json:"job_status_file"`
	Error                 *string  `json:"error"`
}
