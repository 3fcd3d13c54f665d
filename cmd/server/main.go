// Command clipper-server exposes the clipping pipeline over HTTP: job
// submission, status and event polling, diagnostics, and artifact serving.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/cors"

	"media-clipper/internal/config"
	"media-clipper/internal/diagnostics"
	"media-clipper/internal/domain"
	"media-clipper/internal/job"
	"media-clipper/internal/jobs"
	"media-clipper/internal/media"
	"media-clipper/internal/server"
	"media-clipper/internal/transcribe"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "listen address")
		configPath = flag.String("config", defaultConfigPath(), "path to the settings file")
		envFile    = flag.String("env", ".env", "path to an optional env file")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	config.LoadEnvFile(*envFile)

	settings, err := config.NewJSONStore(*configPath).Load()
	if err != nil {
		logger.Error("cannot load settings", "path", *configPath, "err", err)
		os.Exit(1)
	}
	settings = config.ApplyEnv(settings)

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)
	for _, item := range report.Items {
		if item.Status != domain.DiagnosticStatusPass {
			logger.Warn("preflight issue", "check", item.ID, "status", item.Status, "message", item.Message)
		}
	}
	if report.HasFailures {
		logger.Error("preflight failed, refusing to start")
		os.Exit(1)
	}

	manager := jobs.NewManager()
	bus := jobs.NewEventBus(500)

	ops := media.NewOps(settings.FFmpegPath, settings.FFprobePath)
	ops.OnLog = func(log media.CommandLog) {
		bus.Publish(jobs.Event{
			JobID:    manager.Current().ID,
			Type:     jobs.EventTypeLog,
			Command:  log.Command,
			Args:     log.Args,
			ExitCode: log.ExitCode,
			Stderr:   log.Stderr,
		})
	}

	backend := transcribe.NewOpenAIBackend(config.APIKey(), settings.OpenAIModel)
	runner := job.NewRunner(ops, backend, settings.OutputRoot, logger)
	runner.OnStage = server.StageRelay(manager, bus)

	handler := server.NewHandler(runner, manager, bus, func() domain.DiagnosticReport {
		return checker.Run(settings)
	}, logger)
	router := server.NewRouter(handler, settings.OutputRoot)

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})

	logger.Info("server listening", "addr", *addr, "output_root", settings.OutputRoot)
	if err := http.ListenAndServe(*addr, corsWrapper.Handler(router)); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// defaultConfigPath places settings under the user config directory, with
// a working-directory fallback when it cannot be resolved.
func defaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join("config", "settings.json")
	}
	return filepath.Join(base, "media-clipper", "settings.json")
}
