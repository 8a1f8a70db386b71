package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/labconnect/medtest-booking/internal/queue"
)

func notifyCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Consume booking events and write notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				log.Error().Err(err).Msg("invalid configuration")
				return err
			}
			f, err := queue.OpenNotificationLog(dir)
			if err != nil {
				return err
			}
			defer f.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			err = queue.NewNotifier(cfg.Broker.URL, f, log).Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "logs", "directory for notifications.log")
	return cmd
}
