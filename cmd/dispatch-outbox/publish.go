package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rutalog/dispatch-outbox/pkg/dispatch"
	"github.com/rutalog/dispatch-outbox/pkg/orders"
	"github.com/rutalog/dispatch-outbox/pkg/publisher"
)

func publishCommand(app *appInstance) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Select a consolidated block and publish it for distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Orders always live in the relational store, whatever backend
			// the outbox uses.
			db, err := sql.Open("postgres", app.cnf.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := orders.NewPostgresRepository(db)
			pub := publisher.New(app.bus, app.outbox, app.cnf)
			flow := dispatch.NewFlow(repo, app.outbox, pub, cmd.InOrStdin(), cmd.OutOrStdout())

			err = flow.Run(cmd.Context())
			switch {
			case err == nil:
				return nil
			case errors.Is(err, dispatch.ErrNoCandidates):
				fmt.Fprintln(os.Stderr, "No consolidated blocks to distribute")
				return err
			case errors.Is(err, dispatch.ErrInvalidSelection):
				fmt.Fprintln(os.Stderr, err.Error())
				return err
			default:
				var notRecorded *publisher.DeliveredNotRecordedError
				if errors.As(err, &notRecorded) {
					// blind retry duplicates delivery; make the operator read this
					fmt.Fprintln(os.Stderr, "WARNING: "+notRecorded.Error())
				}
				return err
			}
		},
	}
}
