package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/pythonhealthdatascience/pydesrap-stroke/sim"
	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/replication"
	"github.com/pythonhealthdatascience/pydesrap-stroke/sim/trace"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatYAML = "yaml"
)

// stationOccupancy is the pooled occupancy table of one station.
type stationOccupancy struct {
	Station          string             `yaml:"station"`
	Capacity         int                `yaml:"capacity"`
	DelayProbability float64            `yaml:"delay_probability"`
	Rows             []sim.OccupancyRow `yaml:"rows"`
}

// runReport is the output of the run command. The YAML form echoes the
// parameters so a report can be traced back to its inputs.
type runReport struct {
	Experiment   string                      `yaml:"experiment"`
	Replications int                         `yaml:"replications"`
	Param        sim.Param                   `yaml:"param"`
	Summary      []replication.MetricSummary `yaml:"summary"`
	Occupancy    []stationOccupancy          `yaml:"occupancy"`
	Trace        *trace.Summary              `yaml:"trace,omitempty"`
}

func newRunReport(experiment string, p sim.Param, results []*sim.RunResult) runReport {
	r := runReport{
		Experiment:   experiment,
		Replications: len(results),
		Param:        p,
		Summary:      replication.SummaryTable(results, p.Run.Alpha),
	}
	if len(results) == 0 {
		return r
	}
	var traces []*trace.PatientTrace
	for _, res := range results {
		if res.Trace != nil {
			traces = append(traces, res.Trace)
		}
	}
	if len(traces) > 0 {
		r.Trace = trace.Summarize(traces...)
	}
	for _, st := range results[0].Stations() {
		r.Occupancy = append(r.Occupancy, stationOccupancy{
			Station:          st,
			Capacity:         results[0].Capacity[st],
			DelayProbability: replication.PooledDelayProbability(results, st),
			Rows:             replication.PooledOccupancy(results, st),
		})
	}
	return r
}

// selectionReport is the output of the replications command.
type selectionReport struct {
	Experiment string                `yaml:"experiment"`
	Precision  float64               `yaml:"precision"`
	Selection  replication.Selection `yaml:",inline"`
}

func checkFormat(format string) error {
	if format != formatText && format != formatYAML {
		return fmt.Errorf("%w: --format must be %s or %s, got %q", sim.ErrInvalidConfig, formatText, formatYAML, format)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// optional renders an undefined value as "-".
func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

func writeRunReport(w io.Writer, format string, r runReport) error {
	if format == formatYAML {
		return writeYAML(w, r)
	}
	fmt.Fprintf(w, "Experiment %s: %d replications\n\n", r.Experiment, r.Replications)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "metric\tn\tmean\tstd_dev\tci_lower\tci_upper")
	for _, m := range r.Summary {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", m.Metric, m.N, optional(m.Mean), optional(m.StdDev), optional(m.CILower), optional(m.CIUpper))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, st := range r.Occupancy {
		fmt.Fprintf(w, "\n%s (capacity %d, delay probability %.4f)\n", st.Station, st.Capacity, st.DelayProbability)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "beds\tfreq\tpct\tc_pct\tprob_delay\t")
		for _, row := range st.Rows {
			fmt.Fprintf(tw, "%d\t%d\t%.4f\t%.4f\t%.4f\t\n", row.Beds, row.Freq, row.Pct, row.CumPct, row.ProbDelay)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if r.Trace != nil {
		writeTraceSummary(w, r.Trace)
	}
	return nil
}

func writeTraceSummary(w io.Writer, s *trace.Summary) {
	fmt.Fprintf(w, "\nPatient trace: %d admissions, %d delayed, mean wait %.3f, max wait %.3f, %d transfers\n",
		s.Admissions, s.Delayed, s.MeanWait, s.MaxWait, s.Transfers)
	routes := make([]string, 0, len(s.Routes))
	for k := range s.Routes {
		routes = append(routes, k)
	}
	sort.Strings(routes)
	for _, k := range routes {
		fmt.Fprintf(w, "  %s: %d\n", k, s.Routes[k])
	}
}

func writeSelectionReport(w io.Writer, format string, r selectionReport, history bool) error {
	if !history {
		outcomes := make([]replication.Outcome, len(r.Selection.Outcomes))
		for i, o := range r.Selection.Outcomes {
			o.History = nil
			outcomes[i] = o
		}
		r.Selection.Outcomes = outcomes
	}
	if format == formatYAML {
		return writeYAML(w, r)
	}
	fmt.Fprintf(w, "Experiment %s: %d replications run, precision %.3f\n\n", r.Experiment, r.Selection.Replications, r.Precision)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "metric\tsolution\tconverged\treplications")
	for _, o := range r.Selection.Outcomes {
		sol := "-"
		if o.Converged {
			sol = strconv.Itoa(o.Solution)
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d\n", o.Metric, sol, o.Converged, o.Replications)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !history {
		return nil
	}

	for _, o := range r.Selection.Outcomes {
		fmt.Fprintf(w, "\n%s\n", o.Metric)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "replications\tdata\tcumulative_mean\tstdev\tlower_ci\tupper_ci\tdeviation\t")
		for _, row := range o.History {
			fmt.Fprintf(tw, "%d\t%.4f\t%.4f\t%s\t%s\t%s\t%s\t\n", row.Replications, row.Data, row.CumulativeMean,
				optional(row.StdDev), optional(row.LowerCI), optional(row.UpperCI), optional(row.Deviation))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
