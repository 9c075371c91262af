package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rutalog/dispatch-outbox/pkg/broker"
	"github.com/rutalog/dispatch-outbox/pkg/config"
	"github.com/rutalog/dispatch-outbox/pkg/store"
	"github.com/rutalog/dispatch-outbox/pkg/telemetry"
)

// dispatchOutbox represents the CLI application, encapsulating the root command.
type dispatchOutbox struct {
	cmd *cobra.Command
}

// appInstance holds the runtime collaborators shared by the subcommands.
type appInstance struct {
	cnf               *config.Settings
	outbox            store.OutboxStore
	bus               broker.MessageBroker
	shutdownTelemetry func()
}

// recoverPanic handles any panics during execution and logs the error.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads configuration and initializes the store, broker and telemetry
// before any subcommand runs.
func preRun(app *appInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		cnf, err := config.LoadFromFile(configPath)
		if err != nil {
			return err
		}
		app.cnf = cnf

		if cnf.Observability.Enabled {
			shutdown, err := telemetry.Init(cnf.Observability)
			if err != nil {
				return err
			}
			app.shutdownTelemetry = shutdown
		}

		ctx := cmd.Context()

		outbox, err := store.NewStore(ctx, cnf.Database)
		if err != nil {
			return err
		}
		app.outbox = outbox

		bus, err := broker.NewBroker(ctx, &cnf.Broker)
		if err != nil {
			return err
		}
		app.bus = bus

		return nil
	}
}

// postRun releases the broker connection and flushes telemetry.
func postRun(app *appInstance) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		if app.bus != nil {
			if err := app.bus.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close broker connection")
			}
		}
		if app.shutdownTelemetry != nil {
			app.shutdownTelemetry()
		}
	}
}

func newCLI() *dispatchOutbox {
	var app appInstance

	rootCmd := &cobra.Command{
		Use:               "dispatch-outbox",
		Short:             "Publishes consolidated-block distribution events with a durable outbox",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: preRun(&app),
		PersistentPostRun: postRun(&app),
	}
	rootCmd.PersistentFlags().String("config", ".", "directory holding dispatch.yaml")

	rootCmd.AddCommand(publishCommand(&app))
	rootCmd.AddCommand(relayCommand(&app))

	return &dispatchOutbox{cmd: rootCmd}
}

func (d *dispatchOutbox) executeCLI() {
	if err := d.cmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()
	newCLI().executeCLI()
}
