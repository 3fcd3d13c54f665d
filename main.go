// Command media-clipper runs one clipping job from the command line:
// transcribe a video's audio track and export named time-range segments,
// then print the job summary to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"media-clipper/internal/config"
	"media-clipper/internal/diagnostics"
	"media-clipper/internal/domain"
	"media-clipper/internal/job"
	"media-clipper/internal/media"
	"media-clipper/internal/transcribe"
)

func main() {
	var (
		videoPath   = flag.String("video", "", "path to the input video")
		segmentsRaw = flag.String("segments", "", `segments as JSON, e.g. [{"start":"00:00:03","end":"00:00:08"}]`)
		outputDir   = flag.String("output", "", "job output directory (default: <output root>/<video>_job_output)")
		configPath  = flag.String("config", defaultConfigPath(), "path to the settings file")
		envFile     = flag.String("env", ".env", "path to an optional env file")
		demo        = flag.Bool("demo", false, "generate a demo test-pattern video and run the job against it")
		check       = flag.Bool("check", false, "run preflight diagnostics and exit")
		verbose     = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	config.LoadEnvFile(*envFile)

	settings, err := config.NewJSONStore(*configPath).Load()
	if err != nil {
		logger.Error("cannot load settings", "path", *configPath, "err", err)
		os.Exit(1)
	}
	settings = config.ApplyEnv(settings)

	if *check {
		report := diagnostics.NewChecker().Run(settings)
		printJSON(report)
		if report.HasFailures {
			os.Exit(1)
		}
		return
	}

	ops := media.NewOps(settings.FFmpegPath, settings.FFprobePath)
	ops.OnLog = func(log media.CommandLog) {
		logger.Debug("command finished", "command", log.Command, "exit_code", log.ExitCode)
	}

	ctx := context.Background()

	req := domain.JobRequest{
		VideoPath: *videoPath,
		OutputDir: *outputDir,
	}
	if *segmentsRaw != "" {
		if err := json.Unmarshal([]byte(*segmentsRaw), &req.Segments); err != nil {
			logger.Error("cannot parse -segments", "err", err)
			os.Exit(1)
		}
	}

	if *demo {
		req = demoRequest(ctx, ops, settings.OutputRoot, logger)
	}
	if req.VideoPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if duration, err := ops.ProbeDuration(ctx, req.VideoPath); err == nil {
		logger.Info("input probed", "video", req.VideoPath, "duration_sec", duration)
	}

	backend := transcribe.NewOpenAIBackend(config.APIKey(), settings.OpenAIModel)
	runner := job.NewRunner(ops, backend, settings.OutputRoot, logger)

	result := runner.Run(ctx, req)
	printJSON(result)

	if result.Error != nil {
		os.Exit(1)
	}
}

// demoRequest generates a short test-pattern video with a tone track and
// returns a job request exercising both export paths against it.
func demoRequest(ctx context.Context, ops *media.Ops, outputRoot string, logger *slog.Logger) domain.JobRequest {
	demoPath := filepath.Join(outputRoot, "demo.mp4")
	if _, err := ops.GenerateTestPattern(ctx, demoPath, 10); err != nil {
		logger.Error("cannot generate demo video", "err", err)
		os.Exit(1)
	}
	logger.Info("demo video ready", "path", demoPath)

	return domain.JobRequest{
		VideoPath: demoPath,
		Segments: []domain.SegmentSpec{
			{Start: "00:00:01", End: "00:00:04"},
			{Start: "00:00:05", End: "00:00:08"},
		},
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

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
