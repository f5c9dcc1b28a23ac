package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"EngulfSentinel/internal/api"
	"EngulfSentinel/internal/collector"
	"EngulfSentinel/internal/config"
	"EngulfSentinel/internal/entry"
	"EngulfSentinel/internal/executor"
	"EngulfSentinel/internal/logger"
	"EngulfSentinel/internal/notifier"
	"EngulfSentinel/internal/recorder"
	"EngulfSentinel/internal/risk"
	"EngulfSentinel/internal/scheduler"
	"EngulfSentinel/internal/strategy"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}

	zl, err := logger.New(logger.Options{
		Level:       logger.Level(cfg.Log.Level),
		Development: cfg.Log.Development,
	})
	if err != nil {
		log.Fatalf("[FATAL] init logger: %v", err)
	}
	defer zl.Sync()

	if err := cfg.Validate(); err != nil {
		zl.Fatal("config validation", zap.Error(err))
	}
	zl.Info("EngulfSentinel starting",
		zap.String("symbol", cfg.Symbol),
		zap.String("primary", cfg.Timeframes.Primary),
		zap.String("confluence", cfg.Timeframes.Confluence),
		zap.Bool("use_confluence", cfg.ConfluenceEnabled()),
	)

	// Init fetcher
	var fetcher collector.Fetcher
	switch {
	case cfg.DataSource.Mock:
		fetcher = &collector.MockFetcher{}
	case cfg.DataSource.BaseURL != "":
		fetcher = collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	zl.Info("data source ready", zap.String("fetcher", fetcher.Name()))

	col := collector.NewCollector(fetcher, cfg.Symbol, cfg.PrimaryTimeframe(), cfg.ConfluenceTimeframe(), cfg.Timeframes.History)
	col.IncludeFormingBar = cfg.Strategy.IncludeFormingBar

	sizer, err := risk.NewSizer(cfg.Risk)
	if err != nil {
		zl.Fatal("init sizer", zap.Error(err))
	}

	// Init executor
	var exec executor.Executor
	if len(cfg.Kafka.Brokers) > 0 {
		exec = executor.NewKafkaExecutor(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger.Component(zl, "executor"))
	} else {
		exec = executor.NewDryRunExecutor(logger.Component(zl, "executor"))
	}
	defer exec.Close()
	zl.Info("executor ready", zap.String("executor", exec.Name()))

	// Init Telegram notifier
	var (
		note notifier.Notifier = notifier.NoopNotifier{}
		tn   *notifier.TelegramNotifier
	)
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger.Component(zl, "telegram"))
		note = tn
	} else {
		zl.Warn("telegram not configured, notifications disabled")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger.Component(zl, "recorder"))
		if err != nil {
			zl.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	win, err := cfg.SessionWindow()
	if err != nil {
		zl.Fatal("parse session", zap.Error(err))
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := entry.NewTracker(cfg.Strategy.PriceTolerance)
	sched := scheduler.NewScheduler(ctx, scheduler.Deps{
		Collector: col,
		Engine: strategy.NewEngine(strategy.Options{
			Lookback:      cfg.Strategy.Lookback,
			UseConfluence: cfg.ConfluenceEnabled(),
		}),
		Tracker:  tracker,
		Sizer:    sizer,
		Executor: exec,
		Notifier: note,
		Recorder: rec,
		Log:      logger.Component(zl, "scheduler"),
	}, scheduler.Options{
		OrderLabel:    cfg.Strategy.OrderLabel,
		UseConfluence: cfg.ConfluenceEnabled(),
		Session:       win,
	})
	if err := sched.RegisterAll(cfg.Schedule.BarCron, cfg.Schedule.QuoteCron); err != nil {
		zl.Fatal("register cron tasks", zap.Error(err))
	}

	// Build the combo set once so ticks have something to check before the first bar close.
	if err := sched.OnBar(ctx); err != nil {
		zl.Warn("initial scan failed", zap.Error(err))
	}
	sched.Start()

	srv := api.NewServer(cfg.API.Addr, tracker, sched, logger.Component(zl, "api"), cfg.Log.Development)
	go func() {
		if err := srv.Start(); err != nil {
			zl.Error("http server stopped", zap.Error(err))
		}
	}()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		zl.Info("telegram polling started")
	}

	zl.Info("EngulfSentinel is running, press Ctrl+C to stop")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zl.Info("shutdown signal received, stopping")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("http shutdown", zap.Error(err))
	}
	sched.Stop()
	cancel()
	zl.Info("EngulfSentinel stopped")
}
