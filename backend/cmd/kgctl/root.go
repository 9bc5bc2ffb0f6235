package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"voicegraph/backend/internal/services"
	"voicegraph/backend/pkg/config"
	"voicegraph/backend/pkg/logger"
)

var (
	backendFlag  string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:           "kgctl",
	Short:         "Knowledge graph tooling for the conversation pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init("development", logLevelFlag)
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Graph backend (neo4j or memory), overrides GRAPH_BACKEND")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn", "Log level")

	rootCmd.AddCommand(compileCmd, factsCmd, migrateCmd, statementCmd, askCmd)
}

// loadConfig reads the environment and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if backendFlag != "" {
		cfg.GraphBackend = backendFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// startGraph connects only the graph backend
func startGraph(ctx context.Context) (*services.ServiceManager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	manager := services.NewServiceManager(logger.Get(), cfg)
	if err := manager.StartGraph(ctx); err != nil {
		return nil, err
	}
	return manager, nil
}

// startAll connects the graph, history and model provider
func startAll(ctx context.Context) (*services.ServiceManager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	manager := services.NewServiceManager(logger.Get(), cfg)
	if err := manager.StartAll(ctx); err != nil {
		return nil, err
	}
	return manager, nil
}
