package main

import (
	"bms-service/internal/config"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "bms",
		Short:         "Business management service: teams, tasks, meetings, evaluations and calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})).
				With("service", "bms-service")

			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (environment variables take precedence)")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newUserCmd(a),
	)

	wrapErrors(root, a)

	return root
}

// wrapErrors logs command failures through the configured logger once it exists.
func wrapErrors(cmd *cobra.Command, a *app) {
	for _, c := range cmd.Commands() {
		wrapErrors(c, a)
	}

	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err != nil && a.logger != nil {
			a.logger.Error("command failed", "command", cmd.CommandPath(), "error", err)
		}

		return err
	}
}
