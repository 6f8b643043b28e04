// Command signald captures satisfaction signals and task outcomes from
// agent-session turns. It is invoked hook-style by a host (one event per
// process on stdin) or run as a long-lived transcript watcher.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/signald/internal/config"
	"github.com/fyrsmithlabs/signald/internal/inference"
	"github.com/fyrsmithlabs/signald/internal/logging"
	"github.com/fyrsmithlabs/signald/internal/pipeline"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "signald",
		Short: "Sentiment and outcome capture for agent sessions",
		Long: `signald turns free-text session turns into durable structured signals:
satisfaction ratings, categorized learning records, and task-state updates.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/signald/config.yaml)")

	handleCmd := &cobra.Command{
		Use:   "handle",
		Short: "Handle one turn event from stdin",
	}
	handleCmd.AddCommand(newUserTurnCmd(), newAssistantTurnCmd())

	rootCmd.AddCommand(handleCmd, newWatchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newUserTurnCmd handles an inbound user message. The command never returns
// an error for pipeline failures: capture is best-effort and the host's
// turn must not be affected.
func newUserTurnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user-turn",
		Short: "Classify a user message and persist its satisfaction signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, logger, err := buildPipeline()
			if err != nil {
				return err
			}
			defer logger.Sync()

			var ev pipeline.UserTurnEvent
			if err := decodeEvent(cmd.InOrStdin(), &ev); err != nil {
				return err
			}

			p.HandleUserTurn(cmd.Context(), ev)
			return nil
		},
	}
}

// newAssistantTurnCmd handles a completed assistant response.
func newAssistantTurnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assistant-turn",
		Short: "Extract structured fields and update the active task's state",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, logger, err := buildPipeline()
			if err != nil {
				return err
			}
			defer logger.Sync()

			var ev pipeline.AssistantTurnEvent
			if err := decodeEvent(cmd.InOrStdin(), &ev); err != nil {
				return err
			}

			p.HandleAssistantTurn(cmd.Context(), ev)
			return nil
		},
	}
}

// newWatchCmd runs the pipeline off transcript appends.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the session directory and process new turns as they land",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, cfg, logger, err := buildPipeline()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			watcher := pipeline.NewWatcher(p, cfg.Paths.SessionDir, logger.Named("watch"))
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

// buildPipeline loads config and assembles the pipeline.
func buildPipeline() (*pipeline.Pipeline, *config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, err
	}

	var client inference.Client
	if cfg.Inference.Provider == "none" || cfg.Inference.APIKey.Value() == "" {
		logger.Info("inference backend not configured, sentiment capture disabled")
		client = inference.Unavailable{}
	} else {
		client, err = inference.NewAnthropicClient(cfg.Inference)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	return pipeline.New(cfg, logger, client), cfg, logger, nil
}

// decodeEvent reads one JSON event from the host.
func decodeEvent(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading event: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing event: %w", err)
	}
	return nil
}
