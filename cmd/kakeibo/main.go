package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"kakeibo/internal/amqp"
	"kakeibo/internal/budget"
	"kakeibo/internal/cli"
	"kakeibo/internal/currency"
	apphttp "kakeibo/internal/http"
	applog "kakeibo/internal/log"
	"kakeibo/internal/shifts"
	"kakeibo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("kakeibo")
	cfg := cli.LoadAndValidateConfig(logger)

	store, closeStore := cli.OpenStore(logger, cfg)
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// AMQP is optional: without it shift mutations simply go unannounced
	// and the worker relies on its periodic recalc.
	var notifier shifts.Notifier
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without sync notifications", "error", err)
		} else {
			defer amqpClient.Close()
			notifier = amqp.NewNotifier(amqpClient)
			logger.Info("AMQP notifier initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ledger := shifts.NewRepository(store, notifier)
	budgetRepo := budget.NewRepository(store)

	// Repair cached totals and roll the budget month before serving.
	if err := ledger.RecalcAllTotals(ctx); err != nil {
		logger.Error("Startup total recalculation failed", "error", err)
		os.Exit(1)
	}
	monthRoller := worker.NewMonthRoller(budgetRepo)
	if _, err := monthRoller.ProcessMonthRoll(ctx, time.Now()); err != nil {
		logger.Error("Budget month check failed", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := monthRoller.Run(ctx, time.Hour); err != nil && err != context.Canceled {
			logger.Error("Month roller stopped", "error", err)
		}
	}()

	rates := currency.New(store, currency.Config{
		BaseURL:  cfg.RatesBaseURL,
		APIKey:   cfg.RatesAPIKey,
		Interval: cfg.RatesInterval,
	})
	if cfg.DefaultCurrency != "" {
		if _, ok, _ := store.Get(ctx, currency.SelectedKey); !ok {
			if err := rates.SetSelected(ctx, cfg.DefaultCurrency); err != nil {
				logger.Warn("Invalid default currency, keeping JPY", "currency", cfg.DefaultCurrency, "error", err)
			}
		}
	}
	go func() {
		if err := rates.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("Exchange rate refresher stopped", "error", err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, ledger, budgetRepo, rates)
	srv.Handler = applog.Middleware(logger)(srv.Handler)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	})

	logger.Info("Starting kakeibo server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
