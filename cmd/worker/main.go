package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nmorozov/docpipe/internal/bootstrap"
	"github.com/nmorozov/docpipe/internal/config"
	"github.com/nmorozov/docpipe/internal/core/domain"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New("worker", cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.WorkerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	processTimeout := time.Duration(cfg.ProcessTimeoutSeconds) * time.Second

	app.Logger.Info("worker_consuming", "queue", cfg.QueueName, "backend", cfg.QueueBackend)
	err = app.Queue.Consume(ctx, func(handlerCtx context.Context, msg domain.WorkMessage) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, processTimeout)
		defer cancel()

		app.WorkerMetrics.ObserveQueueLag("worker", time.Since(msg.UploadedAt))
		release := app.WorkerMetrics.ProcessStarted()
		defer release()

		start := time.Now()
		processErr := app.ProcessUC.Process(processCtx, msg)
		outcome := "success"
		if processErr != nil {
			outcome = "error"
		}
		app.WorkerMetrics.ObserveProcess("worker", msg.FileType, outcome, time.Since(start))
		return processErr
	})
	if err != nil {
		log.Fatalf("worker consume error: %v", err)
	}
}
