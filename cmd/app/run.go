package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"emotion-recognition/internal/core"
	modelio "emotion-recognition/internal/io"
)

const runPollInterval = 200 * time.Millisecond

type runOptions struct {
	device   int
	duration time.Duration
	snapshot string
}

func runCommand(app *appContext) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run recognition without a window",
		Long: "Runs the pipeline on one camera until the duration elapses, the stream ends or the\n" +
			"process is interrupted. The last annotated frame can be written with --snapshot.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("device") {
				opts.device = app.settings.Camera.Device
			}
			return app.runHeadless(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.device, "device", 0, "Camera device index (defaults to camera.device)")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "Stop after this long; 0 runs until the stream ends")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Save the last annotated frame to this path")
	return cmd
}

func (a *appContext) runHeadless(cmd *cobra.Command, opts runOptions) error {
	store := core.NewFrameStore()
	pipeline := a.newPipeline(store)
	defer func() {
		if err := pipeline.Close(); err != nil {
			a.logger.WithError(err).Warn("RUN: Failed to release pipeline resources")
		}
	}()

	if err := pipeline.Start(opts.device); err != nil {
		return err
	}

	var deadline <-chan time.Time
	if opts.duration > 0 {
		timer := time.NewTimer(opts.duration)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(runPollInterval)
	defer ticker.Stop()

	ctx := cmd.Context()
	reason := "stream ended"
wait:
	for {
		select {
		case <-ctx.Done():
			reason = "interrupted"
			break wait
		case <-deadline:
			reason = "duration elapsed"
			break wait
		case <-ticker.C:
			if pipeline.State() == core.StateIdle {
				break wait
			}
		}
	}

	// Read the store before Stop clears it.
	frame, meta, ok := store.Latest()
	pipeline.Stop()

	a.logger.WithFields(logrus.Fields{
		"reason":    reason,
		"published": store.Published(),
		"label":     meta.Label,
		"labeled":   meta.Labeled,
	}).Info("RUN: Finished")

	if opts.snapshot == "" {
		return nil
	}
	if !ok {
		return errors.New("no frame was published, nothing to snapshot")
	}
	if err := modelio.NewModelLoader(a.logger).SaveFrame(frame, opts.snapshot); err != nil {
		return err
	}
	a.logger.WithField("path", opts.snapshot).Info("RUN: Snapshot saved")
	return nil
}
