package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rutalog/dispatch-outbox/pkg/dispatch"
)

func relayCommand(app *appInstance) *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Dispatch staged outbox records to the broker until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logrus.WithFields(logrus.Fields{
				"broker": app.cnf.Broker.Type,
				"store":  app.cnf.Database.Type,
			})
			log.Info("Relay started")

			relay := dispatch.NewRelay(app.outbox, app.bus, app.cnf, log)
			err := relay.Run(ctx)
			if errors.Is(err, context.Canceled) {
				log.Info("Relay stopped")
				return nil
			}
			return err
		},
	}
}
