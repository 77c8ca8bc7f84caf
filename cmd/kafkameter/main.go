package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kafkameter/internal/api"
	"kafkameter/internal/config"
	"kafkameter/internal/database"
	"kafkameter/internal/harness"
	"kafkameter/internal/logger"
	"kafkameter/internal/producer"
	"kafkameter/internal/results"
	"kafkameter/internal/sampler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Log.Fatalf("kafkameter: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "kafkameter",
		Short:         "Kafka producer load generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (defaults to environment variables)")

	root.AddCommand(
		&cobra.Command{
			Use:   "properties",
			Short: "Print the assembled producer properties",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cfgFile)
				if err != nil {
					return err
				}
				return printProperties(cmd, cfg)
			},
		},
		&cobra.Command{
			Use:   "run",
			Short: "Run a load test against Kafka",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cfgFile)
				if err != nil {
					return err
				}
				return run(cmd, cfg)
			},
		},
	)

	return root
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.SetLevel(cfg.Log.Level)
	return cfg, nil
}

func printProperties(cmd *cobra.Command, cfg *config.Config) error {
	props := producer.BuildProperties(producer.SettingsFromConfig(&cfg.Kafka)).Masked()
	for _, k := range props.Keys() {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, props[k]); err != nil {
			return err
		}
	}
	return nil
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	logger.Log.Info("Starting kafkameter run...")

	settings, extras := producer.SettingsFromConfig(&cfg.Kafka)
	manager := producer.NewManager(settings, extras, producer.WithFlushTimeout(cfg.Kafka.FlushTimeout))

	var (
		sink     sampler.FailureSink
		failures api.FailureStore
	)
	if cfg.Redis.Enabled {
		store, err := results.New(&cfg.Redis)
		if err != nil {
			return err
		}
		defer store.Close()
		sink = store
		failures = store
	}

	var (
		db   *database.DB
		runs api.RunStore
	)
	if cfg.MSSQL.Enabled {
		var err error
		db, err = database.New(&cfg.MSSQL)
		if err != nil {
			return err
		}
		defer db.Close()
		runs = db
	}

	apiServer := api.New(&cfg.API, manager, runs, failures)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("Status API error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plan := harness.Plan{
		Topic:      cfg.Kafka.Topic,
		ClientID:   cfg.Kafka.ClientID,
		Workers:    cfg.Run.Workers,
		Iterations: cfg.Run.Iterations,
		Message:    cfg.Run.Message,
	}
	summary, runErr := harness.NewRunner(plan, manager, sink, manager).Run(ctx)

	if db != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := db.SaveRunSummary(saveCtx, summary); err != nil {
			logger.Log.Errorf("Failed to persist run summary: %v", err)
		}
		cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Log.Errorf("Error stopping status API: %v", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return err
	}

	if errors.Is(runErr, context.Canceled) {
		logger.Log.Info("Run interrupted")
		return nil
	}
	return runErr
}
