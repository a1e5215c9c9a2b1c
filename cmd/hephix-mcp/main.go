package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"hephix-backend/internal/app"
	"hephix-backend/internal/components/telemetry"
	"hephix-backend/internal/tools"
	"hephix-backend/lib/configutil"
	"hephix-backend/lib/util/serviceutil"

	"github.com/mark3labs/mcp-go/server"
)

// stdout carries the protocol, every log line goes to stderr.
func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging.")
	configName := flag.String("config", "config.json5", "The config file, searched for from the working directory upwards.")
	envPath := flag.String("env", ".env", "Path to a dotenv file, skipped when missing.")
	toolSet := flag.String("tools", string(tools.SET_ALL), "Which tools to expose: all, depo or darel.")
	flag.Parse()

	telemetry.InitSlog(*verbose)

	set, err := tools.ParseSet(*toolSet)
	if err != nil {
		serviceutil.Fatal("parse tool set", err)
	}

	err = configutil.LoadEnv(*envPath)
	if err != nil {
		serviceutil.Fatal("load env", err)
	}
	cfg, err := configutil.ReadRecursively[app.Config](*configName)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("no config file found, using defaults", "name", *configName)
		err = nil
	}
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	cfg.ApplyEnv()

	a, err := app.New(cfg, telemetry.SlogAPI{})
	if err != nil {
		serviceutil.Fatal("init app", err)
	}

	slog.Info("serving mcp over stdio", "server", set.ServerName())
	err = server.ServeStdio(tools.NewServer(set, tools.NewHandlers(a.Aggregator, telemetry.SlogAPI{})))
	if err != nil {
		serviceutil.Fatal("serve stdio", err)
	}
}
