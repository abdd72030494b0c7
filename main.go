package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"visdedupe/cluster"
	"visdedupe/engine"
	"visdedupe/logging"
	"visdedupe/metrics"
	"visdedupe/signalhandler"
	"visdedupe/utils"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// A missing .env is fine
	_ = godotenv.Load()

	opts, err := utils.ParseArguments(args)
	if errors.Is(err, pflag.ErrHelp) {
		utils.PrintUsage(os.Stdout)
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		utils.PrintUsage(os.Stderr)
		return exitUsage
	}
	policy, err := cluster.ParsePolicy(opts.Prefer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	runID := uuid.New().String()
	if err := logging.SetupLogger(logging.Options{LogFile: opts.LogFile, Debug: opts.Debug, RunID: runID}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to setup logging: %v\n", err)
	}
	defer logging.CloseLogger()

	ctx, cancel := signalhandler.SetupHandler(context.Background())
	defer cancel()
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cfg := engine.Config{
		Root:      opts.Root,
		Recursive: opts.Recursive,
		Threshold: opts.Threshold,
		Policy:    policy,
		MaxSide:   opts.MaxSide,
		Workers:   opts.Workers,
		MoveDir:   opts.MoveDupes,
		DryRun:    opts.DryRun,
		CachePath: opts.CachePath,
		Progress:  opts.Progress,
		RunID:     runID,
		Metrics:   metrics.NewRecorder(),
	}
	if !opts.NoReport {
		cfg.ReportPath = opts.ReportPath
	}

	startTime := time.Now()
	res, err := engine.Run(ctx, cfg)

	if opts.MetricsPath != "" {
		if merr := cfg.Metrics.WriteTextfile(opts.MetricsPath); merr != nil {
			logging.LogWarning("Cannot write metrics to %s: %v", opts.MetricsPath, merr)
		}
	}

	if errors.Is(err, engine.ErrNoImages) {
		fmt.Fprintln(os.Stderr, "No images found.")
		return exitFailed
	}
	if res == nil {
		logging.LogError("%v", err)
		return exitFailed
	}

	printSummary(res, cfg, time.Since(startTime))
	if err != nil {
		logging.LogError("%v", err)
		return exitFailed
	}
	return exitOK
}

func printSummary(res *engine.Result, cfg engine.Config, elapsed time.Duration) {
	fmt.Printf("Images: %d  Clusters: %d  Duplicates: %d  Skipped: %d\n",
		len(res.Items), len(res.Clusters), res.DuplicateCount(), len(res.Skipped))
	if res.Partial {
		fmt.Println("Run was interrupted; results are partial.")
	}
	if res.ReportWritten {
		fmt.Printf("Report: %s\n", cfg.ReportPath)
	}
	if cfg.MoveDir != "" && !res.Partial {
		if cfg.DryRun {
			fmt.Printf("Would move %d files to %s\n", len(res.Plan), cfg.MoveDir)
		} else {
			fmt.Printf("Moved %d files to %s\n", res.Relocation.Moved, cfg.MoveDir)
		}
	}
	logging.DebugLog("Total execution time: %v", elapsed)
}
