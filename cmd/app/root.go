package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"emotion-recognition/internal/capture"
	"emotion-recognition/internal/config"
	"emotion-recognition/internal/core"
	"emotion-recognition/internal/metrics"
	"emotion-recognition/internal/overlay"
)

// appContext carries what every subcommand needs once flags are parsed
type appContext struct {
	configPath string
	debug      bool

	viper    *viper.Viper
	settings *config.Settings
	logger   *logrus.Logger

	registry      *prometheus.Registry
	metrics       *metrics.PipelineMetrics
	metricsServer *http.Server
}

// RootCommand creates and returns the root command
func RootCommand() *cobra.Command {
	app := &appContext{viper: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:          "emotion-recognition",
		Short:        "Real-time facial emotion recognition",
		Version:      AppVersion,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&app.debug, "debug", "d", false, "Enable debug mode with verbose logging")
	_ = app.viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	guiCmd := guiCommand(app)
	rootCmd.AddCommand(guiCmd, probeCommand(app), runCommand(app))

	// Without a subcommand the window opens.
	rootCmd.RunE = guiCmd.RunE

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.initialize()
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		app.shutdown()
	}

	return rootCmd
}

// initialize loads settings and sets up logging and metrics
func (a *appContext) initialize() error {
	settings, err := config.Load(a.viper, a.configPath)
	if err != nil {
		return err
	}
	a.settings = settings
	a.logger = initLogger(settings.Debug)

	fields := logrus.Fields{
		"version":    AppVersion,
		"debug_mode": settings.Debug,
		"detector":   settings.Detector.Backend,
		"classifier": settings.Classifier.Backend,
	}
	if used := config.ConfigFileUsed(a.viper); used != "" {
		fields["config"] = used
	}
	a.logger.WithFields(fields).Info("Starting " + AppName)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics, err = metrics.NewPipelineMetrics(a.registry)
	if err != nil {
		return errors.Wrap(err, "failed to register pipeline metrics")
	}

	if settings.Metrics.Listen != "" {
		a.serveMetrics(settings.Metrics.Listen)
	}
	return nil
}

func (a *appContext) serveMetrics(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))

	a.metricsServer = &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.WithField("listen", listen).Info("METRICS: Serving /metrics")
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("METRICS: Server failed")
		}
	}()
}

func (a *appContext) shutdown() {
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.WithError(err).Warn("METRICS: Shutdown failed")
		}
	}
	if a.logger != nil {
		a.logger.Info("Application shutting down gracefully")
	}
}

// newPipeline wires the configured capabilities, annotation and recorders
// around the given display
func (a *appContext) newPipeline(display core.Display) *core.Pipeline {
	pipeline := core.NewPipeline(
		capture.NewDeviceOpener(a.logger),
		a.settings.CapabilityLoader(a.logger),
		display,
		a.settings.PipelineOptions(),
		a.logger,
	)
	pipeline.SetAnnotator(overlay.NewAnnotator(a.settings.AnnotationStyle()))

	recorders := core.Recorders{a.metrics}
	if a.settings.Debug {
		recorders = append(recorders, core.NewPipelineDebugger(a.logger))
	}
	pipeline.SetRecorder(recorders)
	return pipeline
}
