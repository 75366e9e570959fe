package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim"
	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/replication"
)

// defaultMetrics are tracked by the replications command when --metric is
// not given.
var defaultMetrics = []string{
	sim.Metric(string(sim.ASU), sim.MeasureMeanDemand),
	sim.Metric(string(sim.Rehab), sim.MeasureMeanDemand),
}

// Selection methods accepted by --method.
const (
	methodAlgorithm = "algorithm"
	methodCI        = "ci"
)

// newReplicationsCmd chooses the number of replications needed for a target
// precision on one or more metrics.
func newReplicationsCmd(g *globalFlags, experiment string) *cobra.Command {
	pf := &paramFlags{}
	cfg := replication.DefaultAlgorithmConfig()
	var (
		metrics []string
		history bool
		method  string
	)
	cmd := &cobra.Command{
		Use:   "replications",
		Short: "Find the number of replications needed for a precise estimate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if method != methodAlgorithm && method != methodCI {
				return fmt.Errorf("%w: --method must be %s or %s, got %q", sim.ErrInvalidConfig, methodAlgorithm, methodCI, method)
			}
			p, err := pf.build(cmd.Flags())
			if err != nil {
				return err
			}
			cfg.Alpha = p.Run.Alpha
			alg, err := replication.NewAlgorithm(cfg)
			if err != nil {
				return err
			}
			runner, err := replication.NewRunner(p, p.Run.Workers)
			if err != nil {
				return err
			}

			logrus.Infof("Selecting replications for %v at precision %.3f (budget %d, method %s)", metrics, cfg.Precision, cfg.Budget, method)
			var sel *replication.Selection
			if method == methodCI {
				sel, err = alg.SelectByInterval(cmd.Context(), runner, metrics)
			} else {
				sel, err = alg.Select(cmd.Context(), runner, metrics)
			}
			if err != nil {
				return err
			}
			report := selectionReport{Experiment: experiment, Precision: cfg.Precision, Selection: *sel}
			return writeSelectionReport(cmd.OutOrStdout(), g.format, report, history)
		},
	}
	pf.register(cmd.Flags())
	f := cmd.Flags()
	f.Float64Var(&cfg.Precision, "precision", cfg.Precision, "Target relative half-width of the confidence interval")
	f.IntVar(&cfg.InitialReplications, "initial", cfg.InitialReplications, "Replications run before the first check")
	f.IntVar(&cfg.Minimum, "minimum", cfg.Minimum, "Smallest replication count that may be reported")
	f.IntVar(&cfg.LookAhead, "lookahead", cfg.LookAhead, "Further replications that must stay within precision")
	f.IntVar(&cfg.Budget, "budget", cfg.Budget, "Maximum number of replications")
	f.IntVar(&cfg.BatchSize, "batch", cfg.BatchSize, "Replications run between checks after the initial batch")
	f.StringSliceVar(&metrics, "metric", defaultMetrics, "Metric to track (repeatable), e.g. asu.mean_demand")
	f.StringVar(&method, "method", methodAlgorithm, "Selection method: algorithm (look-ahead check) or ci (first count within precision over the whole budget)")
	f.BoolVar(&history, "history", false, "Print the cumulative statistics after each replication")
	return cmd
}
