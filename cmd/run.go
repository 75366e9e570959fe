package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/replication"
)

// newRunCmd runs a fixed number of replications and reports the summary
// table and pooled occupancy per station.
func newRunCmd(g *globalFlags, experiment string) *cobra.Command {
	pf := &paramFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run replications of the stroke model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pf.build(cmd.Flags())
			if err != nil {
				return err
			}
			runner, err := replication.NewRunner(p, p.Run.Workers)
			if err != nil {
				return err
			}

			start := time.Now()
			logrus.Infof("Starting %d replications: warm-up %.0f days, data collection %.0f days, seed %d",
				p.Run.Replications, p.Run.WarmUp, p.Run.DataCollection, p.Run.Seed)
			results, err := runner.RunReplications(cmd.Context())
			if err != nil {
				return err
			}
			logrus.Infof("Simulation complete in %s", time.Since(start).Round(time.Millisecond))

			return writeRunReport(cmd.OutOrStdout(), g.format, newRunReport(experiment, p, results))
		},
	}
	pf.register(cmd.Flags())
	return cmd
}
