package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/tracelite-io/tracelite/internal/safe"
	"github.com/tracelite-io/tracelite/internal/traceevent"
)

// labelStats aggregates the complete events sharing one section label.
type labelStats struct {
	label     string
	durations []float64 // microseconds
}

func newSummarizeCmd() *cobra.Command {
	var topN int

	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: "Print per-section timing statistics for a trace file",
		Long: `Aggregate the complete events of a trace file by section label and
print count, total, mean, p50, p95 and max durations, sorted by total
time. Accepts both raw trace-event streams and aggregated profiles.

Examples:
  tracelite summarize startup.trace
  tracelite summarize run.json --top 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := safe.ReadFile(args[0], nil)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			events, err := traceevent.Decode(data)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			byLabel := map[string]*labelStats{}
			for _, ev := range events {
				if ev.Phase != traceevent.PhaseComplete {
					continue
				}
				ls := byLabel[ev.Name]
				if ls == nil {
					ls = &labelStats{label: ev.Name}
					byLabel[ev.Name] = ls
				}
				ls.durations = append(ls.durations, float64(ev.Duration))
			}
			if len(byLabel) == 0 {
				cmd.Println("No complete events found")
				return nil
			}

			rows := make([]*labelStats, 0, len(byLabel))
			for _, ls := range byLabel {
				rows = append(rows, ls)
			}
			sort.Slice(rows, func(i, j int) bool {
				return rows[i].total() > rows[j].total()
			})
			if topN > 0 && len(rows) > topN {
				rows = rows[:topN]
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SECTION\tCOUNT\tTOTAL\tMEAN\tP50\tP95\tMAX")
			for _, ls := range rows {
				sort.Float64s(ls.durations)
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
					ls.label,
					len(ls.durations),
					formatMicros(ls.total()),
					formatMicros(stat.Mean(ls.durations, nil)),
					formatMicros(stat.Quantile(0.50, stat.Empirical, ls.durations, nil)),
					formatMicros(stat.Quantile(0.95, stat.Empirical, ls.durations, nil)),
					formatMicros(ls.durations[len(ls.durations)-1]),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&topN, "top", 0, "only show the top N sections by total time (0 = all)")

	return cmd
}

func (s *labelStats) total() float64 {
	var sum float64
	for _, d := range s.durations {
		sum += d
	}
	return sum
}

// formatMicros renders a microsecond quantity with a readable unit.
func formatMicros(us float64) string {
	switch {
	case us >= 1e6:
		return fmt.Sprintf("%.2fs", us/1e6)
	case us >= 1e3:
		return fmt.Sprintf("%.2fms", us/1e3)
	default:
		return fmt.Sprintf("%.0fµs", us)
	}
}
