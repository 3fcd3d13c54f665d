// Package server exposes the job-submission HTTP surface: submit one job,
// poll its status and progress events, and fetch produced artifacts. The
// core pipeline stays transport-free; this layer is the caller that
// enforces the one-active-job rule.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"media-clipper/internal/domain"
	"media-clipper/internal/jobs"
)

// JobRunner is the pipeline port consumed by the HTTP surface.
type JobRunner interface {
	Run(ctx context.Context, req domain.JobRequest) domain.JobResult
}

// Handler wires HTTP endpoints to the job runner and progress tracking.
type Handler struct {
	runner   JobRunner
	manager  *jobs.Manager
	bus      *jobs.EventBus
	diagnose func() domain.DiagnosticReport
	logger   *slog.Logger

	newID func() string

	// onJobDone, when set, is invoked after a job finishes. Used by tests
	// to synchronize with the background goroutine.
	onJobDone func(result domain.JobResult)
}

// NewHandler constructs the HTTP handler set.
func NewHandler(runner JobRunner, manager *jobs.Manager, bus *jobs.EventBus, diagnose func() domain.DiagnosticReport, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		runner:   runner,
		manager:  manager,
		bus:      bus,
		diagnose: diagnose,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// submitResponse is the accepted-job payload.
type submitResponse struct {
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

// SubmitJob handles POST /api/jobs. At most one job runs at a time; a
// second submission while one is active is rejected with 409.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req domain.JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid job request body", http.StatusBadRequest)
		return
	}
	if req.VideoPath == "" {
		http.Error(w, "video_path is required", http.StatusBadRequest)
		return
	}

	id := h.newID()
	if err := h.manager.Start(id); err != nil {
		if errors.Is(err, jobs.ErrJobAlreadyRunning) {
			http.Error(w, "a job is already running", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.bus.Publish(jobs.Event{
		JobID:   id,
		Type:    jobs.EventTypeStatus,
		Status:  domain.JobStatusPreprocessing,
		Message: "job accepted",
	})
	h.logger.Info("job accepted", "job_id", id, "video", req.VideoPath, "segments", len(req.Segments))

	go h.execute(id, req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(submitResponse{JobID: id, Status: domain.JobStatusPreprocessing})
}

// execute runs one job in the background and records its completion.
func (h *Handler) execute(id string, req domain.JobRequest) {
	result := h.runner.Run(context.Background(), req)

	final := domain.JobStatusDone
	if result.Error != nil {
		final = domain.JobStatusFailed
	}
	if err := h.manager.Transition(final); err != nil {
		h.logger.Warn("final transition rejected", "job_id", id, "err", err)
	}

	event := jobs.Event{
		JobID:         id,
		Type:          jobs.EventTypeResult,
		Status:        final,
		AudioSegments: len(result.ExportedAudioSegments),
		VideoSegments: len(result.ExportedVideoSegments),
		TranscriptOK:  result.TranscriptContent != nil,
	}
	if result.Error != nil {
		event.Message = *result.Error
	}
	if result.JobStatusFile != nil {
		event.SummaryPath = *result.JobStatusFile
	}
	h.bus.Publish(event)
	h.logger.Info("job finished", "job_id", id, "status", final)

	if h.onJobDone != nil {
		h.onJobDone(result)
	}
}

// CurrentJob handles GET /api/jobs/current.
func (h *Handler) CurrentJob(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.manager.Current())
}

// eventsResponse wraps incremental events with the highest sequence seen.
type eventsResponse struct {
	Events  []jobs.Event `json:"events"`
	LastSeq int64        `json:"lastSeq"`
}

// Events handles GET /api/events?since=N with incremental polling reads.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid since parameter", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	events := h.bus.Since(since)
	resp := eventsResponse{Events: events, LastSeq: since}
	if len(events) > 0 {
		resp.LastSeq = events[len(events)-1].Seq
	}
	if resp.Events == nil {
		resp.Events = []jobs.Event{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Diagnostics handles GET /api/diagnostics with the preflight report.
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	if h.diagnose == nil {
		http.Error(w, "diagnostics not configured", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.diagnose())
}

// StageRelay returns a runner stage callback that applies manager
// transitions and publishes status events. Safe because only one job is
// active at a time.
func StageRelay(manager *jobs.Manager, bus *jobs.EventBus) func(domain.JobStatus) {
	return func(status domain.JobStatus) {
		if err := manager.Transition(status); err != nil {
			return
		}
		bus.Publish(jobs.Event{
			JobID:  manager.Current().ID,
			Type:   jobs.EventTypeStatus,
			Status: status,
		})
	}
}
