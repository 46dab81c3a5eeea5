package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tribunal/internal/adapter/llm"
	"tribunal/internal/cache"
	"tribunal/internal/config"
	"tribunal/internal/debate"
	"tribunal/internal/replay"
	"tribunal/internal/service"
	"tribunal/internal/signal"
	"tribunal/internal/store"
	"tribunal/internal/worker"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "tribunal",
	Short:         "Debate-based claim evaluation for language models",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file overlaying the environment")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig merges .env, environment, and the optional config file.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	_ = godotenv.Load()

	cfg := config.Load()
	if configFile != "" {
		if err := cfg.LoadFile(configFile); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	return cfg, log, nil
}

// buildService wires the full pipeline. The caller owns closing the store.
func buildService(cfg *config.Config, log *logrus.Logger) (*service.Service, *store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	client := llm.NewCompletionClient(cfg.CompletionURL, cfg.APIKey, cfg.ModelKey, cfg.StepTimeout, log)
	svc := service.New(
		st,
		cache.NewManager(st, cfg.MaxSlots, cfg.SlotTTL, log),
		debate.New(client, cfg.StepTimeout, cfg.EarlyStopJaccard, log),
		replay.NewEngine(st, log),
		worker.NewPool(signal.NewLexicalEngine(), cfg.SignalWorkers, log),
		cfg,
		log,
	)
	return svc, st, nil
}
