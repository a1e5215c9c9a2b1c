package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"hephix-backend/internal/app"
	"hephix-backend/internal/components/telemetry"
	"hephix-backend/lib/configutil"

	"github.com/spf13/cobra"
)

var verbose *bool
var configName *string
var envPath *string

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
	configName = rootCmd.PersistentFlags().String("config", "config.json5", "The config file, searched for from the working directory upwards.")
	envPath = rootCmd.PersistentFlags().String("env", ".env", "A dotenv file, skipped when missing.")
}

var rootCmd = &cobra.Command{
	Use:   "hephix-cli",
	Short: "hephix-cli searches depo.lv and darel.lv from the terminal.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the nearest config file, falling back to defaults when there is none.
func loadConfig() (app.Config, error) {
	err := configutil.LoadEnv(*envPath)
	if err != nil {
		return app.Config{}, err
	}
	cfg, err := configutil.ReadRecursively[app.Config](*configName)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file found, using defaults", "name", *configName)
		err = nil
	}
	if err != nil {
		return app.Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}
