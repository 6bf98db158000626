package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/amqp"
	"kakeibo/internal/cli"
	"kakeibo/internal/sheets"
	gsheet "kakeibo/internal/sheets/google"
	sheetmem "kakeibo/internal/sheets/memory"
	"kakeibo/internal/shifts"
	"kakeibo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("kakeibo-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting kakeibo-worker")

	store, closeStore := cli.OpenStore(logger, cfg)
	defer closeStore()

	ledger := shifts.NewRepository(store, nil)

	// Google Sheets export is optional; without credentials the worker
	// still repairs totals, appends just land in an in-memory buffer.
	var writer sheets.ShiftWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = sheetmem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(ledger, writer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// On startup, repair any totals that drifted while the worker was down.
	if err := ledger.RecalcAllTotals(ctx); err != nil {
		logger.Error("Startup total recalculation failed", "error", err)
		os.Exit(1)
	}

	recalc := worker.NewRecalcProcessor(ledger, worker.RecalcProcessorConfig{
		Interval: cfg.RecalcInterval,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeShiftSync(gctx, func(msg *amqp.ShiftSyncMessage) error {
			return syncWorker.HandleSyncMessage(gctx, msg)
		})
	})

	g.Go(func() error {
		if err := recalc.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return recalc.Stop(context.Background())
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
