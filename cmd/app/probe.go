package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"emotion-recognition/internal/capture"
)

func probeCommand(app *appContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "List usable cameras",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = app.settings.Camera.ProbeLimit
			}
			if limit <= 0 {
				return errors.Errorf("--limit must be positive, got %d", limit)
			}

			sources := capture.Probe(capture.NewDeviceOpener(app.logger), limit, app.logger)
			out := cmd.OutOrStdout()
			if len(sources) == 0 {
				fmt.Fprintln(out, "No cameras found")
				return nil
			}
			for i, name := range capture.SourceNames(sources) {
				fmt.Fprintf(out, "%d\t%s\n", sources[i], name)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", capture.DefaultProbeLimit, "Number of device indices to probe")
	return cmd
}
