// Package app wires configuration into a ready-to-run monitor. Both
// binaries build their components here.
package app

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"ot-job-monitor/internal/artifacts"
	"ot-job-monitor/internal/config"
	"ot-job-monitor/internal/dedup"
	"ot-job-monitor/internal/display"
	"ot-job-monitor/internal/logger"
	"ot-job-monitor/internal/metrics"
	"ot-job-monitor/internal/monitor"
	"ot-job-monitor/internal/telegram"
	"ot-job-monitor/internal/translate"
)

type Options struct {
	Mode  monitor.Mode
	Debug bool
	// Out receives show-mode output; defaults to stdout.
	Out     io.Writer
	Metrics *metrics.Metrics
}

// NewLogger builds the process logger from cfg. Debug forces debug level and
// the console encoder.
func NewLogger(cfg *config.Config, debug bool) (*zap.Logger, error) {
	lc := logger.Config{
		Level:       cfg.LogLevel,
		OutputPaths: []string{"stdout"},
		Development: debug,
	}
	if cfg.LogFile != "" {
		lc.OutputPaths = append(lc.OutputPaths, cfg.LogFile)
	}
	if debug {
		lc.Level = "debug"
	}
	return logger.New(lc)
}

// NeedsTelegram reports whether mode delivers messages.
func NeedsTelegram(mode monitor.Mode) bool {
	return mode == monitor.ModeCheck || mode == monitor.ModeTest
}

// NewNotifier connects to Telegram with the configured credentials.
func NewNotifier(cfg *config.Config, log *zap.Logger) (*telegram.Notifier, error) {
	if err := cfg.ValidateTelegram(); err != nil {
		return nil, err
	}
	return telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID, telegram.Options{
		Pause: cfg.SendPause,
	}, log)
}

// Build assembles a monitor. notifier may be nil for show mode.
func Build(cfg *config.Config, notifier *telegram.Notifier, opts Options, log *zap.Logger) (*monitor.Monitor, error) {
	var recorder *artifacts.Recorder
	if opts.Debug {
		rec, err := artifacts.New(cfg.DebugDir, log)
		if err != nil {
			return nil, fmt.Errorf("debug output: %w", err)
		}
		recorder = rec
	}

	store := dedup.Load(cfg.SeenPath, log)
	opts.Metrics.SetSeen(store.Len())

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	deps := monitor.Deps{
		Source:   monitor.NewBrowserSource(cfg, recorder, log),
		Store:    store,
		Renderer: display.NewTableRenderer(out, cfg.Criteria()),
		Metrics:  opts.Metrics,
		Criteria: cfg.Criteria(),
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	if recorder != nil {
		deps.Recorder = recorder
	}
	if cfg.Translate {
		deps.NewTranslator = func(l *zap.Logger) monitor.Translator {
			return translate.New(translate.Options{}, l)
		}
	}

	return monitor.New(deps, log), nil
}
