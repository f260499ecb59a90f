package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/cabina/internal/adapters/capture"
	"github.com/okian/cabina/internal/adapters/monitor"
	"github.com/okian/cabina/internal/adapters/notify"
	"github.com/okian/cabina/internal/config"
	"github.com/okian/cabina/internal/domain/emotion"
	"github.com/okian/cabina/internal/domain/model"
	"github.com/okian/cabina/internal/domain/protocol"
	"github.com/okian/cabina/pkg/logger"
)

const defaultSessionCount = 6

var errNoSamples = errors.New("recording holds no samples")

func newRootCmd() *cobra.Command {
	var (
		cfg     *config.Config
		verbose bool
	)

	root := &cobra.Command{
		Use:           "cabina-cli",
		Short:         "Offline tools for the cabina voice-state analyzer",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			cfg = loaded

			if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline details to stderr")

	root.AddCommand(
		newAnalyzeCmd(func() *config.Config { return cfg }),
		newSessionCmd(func() *config.Config { return cfg }),
		newRulesCmd(func() *config.Config { return cfg }),
	)
	return root
}

func newClassifier(cfg *config.Config) *emotion.Classifier {
	return emotion.NewClassifier(
		emotion.WithLowVolume(cfg.LowVolume),
		emotion.WithHighVolume(cfg.HighVolume),
		emotion.WithHighVariability(cfg.HighVariability),
	)
}

func newAnalyzeCmd(cfg func() *config.Config) *cobra.Command {
	var rate int
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Classify a WAV or raw PCM16LE recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			block, fileRate, err := capture.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if len(block) == 0 {
				return fmt.Errorf("%s: %w", args[0], errNoSamples)
			}
			sampleRate := rate
			if sampleRate <= 0 {
				sampleRate = cfg().SampleRate
			}
			if fileRate > 0 {
				sampleRate = fileRate
			}

			res, err := newClassifier(cfg()).Analyze(block, sampleRate)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderResult(args[0], res))
			fmt.Fprintln(out, renderProtocol(protocol.For(res.State)))
			return nil
		},
	}
	cmd.Flags().IntVar(&rate, "rate", 0, "sample rate of raw PCM input (defaults to the configured rate)")
	return cmd
}

// escalator notifies synchronously so a session can report every incident.
type escalator struct {
	notifier  *notify.StubNotifier
	incidents []model.Incident
}

func (e *escalator) Enqueue(ctx context.Context, a model.Alert) error { //nolint:gocritic // hugeParam: matches monitor.AlertSink
	inc, err := e.notifier.Notify(ctx, a)
	if err != nil {
		return err
	}
	e.incidents = append(e.incidents, inc)
	return nil
}

func newSessionCmd(cfg func() *config.Config) *cobra.Command {
	var (
		count int
		file  string
	)
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Run several capture windows and summarize the states seen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := cfg()
			if count <= 0 {
				return fmt.Errorf("%w: --count must be positive", config.ErrInvalidConfig)
			}

			var src monitor.Source = capture.NewSyntheticSource(c.SampleRate, c.CaptureDuration())
			if file != "" {
				fs, err := capture.NewFileSource(file, c.SampleRate, c.CaptureDuration())
				if err != nil {
					return err
				}
				src = fs
			}

			esc := &escalator{notifier: notify.NewStubNotifier(
				notify.WithCrisisLine(c.CrisisLine),
				notify.WithLogger(logger.Named("notifier")),
			)}
			m := monitor.New(src, newClassifier(c), c.CaptureDuration(),
				monitor.WithAlertSink(esc),
				monitor.WithLogger(logger.Named("monitor")),
			)

			out := cmd.OutOrStdout()
			var snaps []model.Snapshot
			for i := 0; i < count; i++ {
				snap, err := m.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				snaps = append(snaps, snap)
				fmt.Fprintln(out, renderCycle(snap))
			}
			for _, inc := range esc.incidents {
				fmt.Fprintln(out, renderIncident(inc))
			}
			fmt.Fprintln(out, renderSummary(snaps, len(esc.incidents)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", defaultSessionCount, "number of capture windows")
	cmd.Flags().StringVar(&file, "file", "", "replay a recording instead of the synthetic profiles")
	return cmd
}

func newRulesCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the classification rule table and thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClassifier(cfg())
			fmt.Fprintln(cmd.OutOrStdout(), renderRules(c.Rules(), c.Thresholds()))
			return nil
		},
	}
}
