package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tribunal/internal/service"
)

var sweepInterval time.Duration

var runCmd = &cobra.Command{
	Use:   "run <dataset.yaml>",
	Short: "Evaluate every case in a dataset through a fresh debate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		dataset, err := service.LoadDataset(args[0])
		if err != nil {
			return err
		}

		svc, st, err := buildService(cfg, log)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := svc.StartupMaintenance(ctx); err != nil {
			return err
		}
		go svc.RunFreshnessSweepMonitor(ctx, sweepInterval)

		runID, err := svc.RunEvaluation(ctx, dataset)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), runID)
		return nil
	},
}

func init() {
	runCmd.Flags().DurationVar(&sweepInterval, "sweep-interval", 5*time.Minute, "interval between cache freshness sweeps")
}
