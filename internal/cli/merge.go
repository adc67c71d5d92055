package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracelite-io/tracelite/internal/safe"
	"github.com/tracelite-io/tracelite/internal/traceevent"
)

func newMergeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge <file>...",
		Short: "Merge trace-event files into one stream",
		Long: `Merge two or more trace-event files into a single raw trace-events
stream. Records are carried over verbatim, so traces produced by other
tools keep their extra fields. Both on-disk layouts are accepted (bare
event array or object envelope).

Examples:
  # Merge CPU and GPU timelines into one viewer file
  tracelite merge cpu.trace gpu.trace -o combined.trace

  # Fold an aggregated profile back into a raw stream
  tracelite merge run.json frames.trace -o all.trace`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []json.RawMessage
			for _, path := range args {
				data, err := safe.ReadFile(path, nil)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				merged, err := traceevent.DecodeRaw(data)
				if err != nil {
					return fmt.Errorf("failed to parse %s: %w", path, err)
				}
				logger.Debug().Str("path", path).Int("events", len(merged)).Msg("Read trace file")
				records = append(records, merged...)
			}

			data, err := traceevent.EncodeRaw(records)
			if err != nil {
				return err
			}
			out, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer safe.Close(out, logger, "failed to close merged trace file")
			if _, err := out.Write(data); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			cmd.Printf("Merged %d events from %d files into %s\n", len(records), len(args), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "merged.trace", "output file")

	return cmd
}
