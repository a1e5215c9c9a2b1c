package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"hephix-backend/internal/app"
	"hephix-backend/internal/components/telemetry"
	"hephix-backend/lib/configutil"
	"hephix-backend/lib/util/serviceutil"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging.")
	configPath := flag.String("config", "config.json5", "Path to the configuration file.")
	envPath := flag.String("env", ".env", "Path to a dotenv file, skipped when missing.")
	flag.Parse()

	ctx := serviceutil.SignalContext()
	telemetry.InitSlog(*verbose)

	err := configutil.LoadEnv(*envPath)
	if err != nil {
		serviceutil.Fatal("load env", err)
	}

	cfg, err := configutil.ReadConfig[app.Config](*configPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("no config file found, using defaults", "path", *configPath)
		err = nil
	}
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	cfg.ApplyEnv()

	shutdown := InitTelemetry(ctx, cfg.Telemetry)
	defer shutdown()

	a, err := app.New(cfg, telemetry.SlogAPI{})
	if err != nil {
		serviceutil.Fatal("init app", err)
	}

	err = serviceutil.StartHttpServer(ctx, cfg.Port(), a.Handler())
	if err != nil {
		slog.Error("serve", "err", err)
	}
}

// InitTelemetry starts otlp export and process gauges when an otlp destination is configured, the
// returned function flushes pending telemetry.
func InitTelemetry(ctx context.Context, cfg *telemetry.OtelConfig) func() {
	if cfg == nil {
		slog.Debug("otlp export disabled")
		return func() {}
	}

	otel, err := telemetry.SetupOtel(ctx, "hephix-server", *cfg)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	return func() {
		err := otel.Shutdown(context.Background())
		if err != nil {
			slog.Error("shutdown telemetry", "err", err)
		}
	}
}
