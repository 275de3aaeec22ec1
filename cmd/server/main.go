package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ot-job-monitor/internal/app"
	"ot-job-monitor/internal/config"
	"ot-job-monitor/internal/metrics"
	"ot-job-monitor/internal/monitor"
	"ot-job-monitor/internal/scheduler"
)

func main() {
	cfgFile := flag.String("config", "", "config file")
	debug := flag.Bool("debug", false, "write debug artifacts on every run")
	flag.Parse()

	if err := serve(*cfgFile, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func serve(cfgFile string, debug bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.ValidateSchedule(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := app.NewLogger(cfg, debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier, err := app.NewNotifier(cfg, log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := app.Build(cfg, notifier, app.Options{
		Mode:    monitor.ModeCheck,
		Debug:   debug,
		Metrics: metrics.NewMetrics(reg),
	}, log)
	if err != nil {
		return err
	}

	status := newRunStatus()
	sched := scheduler.New(ctx, cfg.CheckInterval, func(ctx context.Context) error {
		runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
		res, err := m.Run(runCtx, monitor.ModeCheck)
		status.record(res, err)
		return err
	}, log)

	if err := notifier.SendStatus(ctx, fmt.Sprintf("Job monitor started, checking every %s", cfg.CheckInterval)); err != nil {
		log.Warn("⚠️ Failed to send startup status", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(reg, status),
	}
	go func() {
		log.Info("Server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("❌ Failed to start server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("⚠️ Server shutdown", zap.Error(err))
	}
	sched.Stop()
	return nil
}
