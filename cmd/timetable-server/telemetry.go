package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"ctutimetable-backend/lib/serviceutil"
	"ctutimetable-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "timetable-server")
	if errors.Is(err, os.ErrNotExist) {
		slog.InfoContext(ctx, "no telemetry.json5 found, traces and metrics are not exported")
		return
	}
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		tel.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)
}
