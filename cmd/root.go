package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel string
	logFile  string
	envFile  string
	format   string
}

// newRootCmd builds the command tree. Each call returns independent flag
// state.
func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	experiment := newExperimentID()
	var closeLog func() error

	root := &cobra.Command{
		Use:           "stroke-sim",
		Short:         "Discrete-event simulation of stroke patient flow",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(g.envFile); err != nil {
				return err
			}
			if err := applyEnv(cmd.Flags()); err != nil {
				return err
			}
			if err := checkFormat(g.format); err != nil {
				return err
			}
			sink, err := setupLogging(cmd.ErrOrStderr(), g.logLevel, g.logFile, experiment)
			if err != nil {
				return err
			}
			closeLog = sink.Close
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closeLog != nil {
				return closeLog()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	pf.StringVar(&g.logFile, "log-file", "", "Also write logs to this rotating file (must end in .log)")
	pf.StringVar(&g.envFile, "env-file", ".env", "Environment file read before flags are applied")
	pf.StringVar(&g.format, "format", formatText, "Output format (text, yaml)")

	root.AddCommand(newRunCmd(g, experiment))
	root.AddCommand(newReplicationsCmd(g, experiment))
	return root
}

// Execute runs the CLI root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		stop()
		os.Exit(1)
	}
}
