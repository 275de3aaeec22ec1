package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ot-job-monitor/internal/app"
	"ot-job-monitor/internal/config"
	"ot-job-monitor/internal/monitor"
	"ot-job-monitor/internal/telegram"
)

var (
	cfgFile string
	debug   bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scraper",
		Short:         "Check the OT job board and deliver new listings to Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), monitor.ModeCheck)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default configs/config.yaml or $"+config.PathEnv+")")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "save raw pages, postings and anomaly reports and log at debug level")

	root.AddCommand(
		modeCmd(monitor.ModeCheck, "Deliver new listings and mark them seen (default)"),
		modeCmd(monitor.ModeTest, "Resend every listing in debug format, ignoring and keeping the seen set"),
		modeCmd(monitor.ModeShow, "Print new listings to the terminal without sending anything"),
	)
	return root
}

func modeCmd(mode monitor.Mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), mode)
		},
	}
}

func run(ctx context.Context, mode monitor.Mode) error {
	//load config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if app.NeedsTelegram(mode) {
		if err := cfg.ValidateTelegram(); err != nil {
			return err
		}
	}

	log, err := app.NewLogger(cfg, debug)
	if err != nil {
		return err
	}
	defer log.Sync()
	log.Info("🔧 Config loaded",
		zap.String("mode", string(mode)),
		zap.Strings("locations", cfg.Locations),
		zap.String("window", cfg.StartDateMin+" ~ "+cfg.StartDateMax))

	//init telegram bot, failing fast on a bad token
	var notifier *telegram.Notifier
	if app.NeedsTelegram(mode) {
		notifier, err = app.NewNotifier(cfg, log)
		if err != nil {
			log.Error("❌ Failed to init Telegram Bot", zap.Error(err))
			return err
		}
		if err := notifier.TestConnection(); err != nil {
			return err
		}
		log.Info("🤖 Telegram Bot initialized.")
	}

	m, err := app.Build(cfg, notifier, app.Options{Mode: mode, Debug: debug}, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	_, err = m.Run(ctx, mode)
	return err
}
