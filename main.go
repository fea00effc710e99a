package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/resoul/awstranscribe/config"
	"github.com/resoul/awstranscribe/models"
	"github.com/resoul/awstranscribe/services"
)

const pushJobName = "awstranscribe"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("❌ failed to load config: %v", err)
	}
	initLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := services.NewObjectStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("❌ failed to init object storage: %v", err)
	}

	awsCfg, err := services.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		logrus.Fatalf("❌ failed to init AWS: %v", err)
	}

	metrics := services.NewMetrics()
	fetcher := services.NewFetcher(&http.Client{Timeout: cfg.Source.Timeout})
	processor := services.NewProcessor(fetcher, store, services.NewAWSTranscriber(awsCfg), metrics, services.OptionsFromConfig(cfg))

	logrus.WithFields(logrus.Fields{
		"mode":    cfg.Mode,
		"backend": cfg.Storage.Backend,
		"region":  cfg.AWS.Region,
	}).Info("Configuration loaded")

	switch cfg.Mode {
	case config.ModeWorker:
		runWorker(ctx, cfg, processor, metrics)
	default:
		runOnce(ctx, cfg, processor, metrics)
	}
}

func runOnce(ctx context.Context, cfg *config.Config, processor *services.Processor, metrics *services.Metrics) {
	result, err := processor.HandleJob(ctx, models.JobMessage{
		SourceURL:    cfg.Source.URL,
		LanguageCode: cfg.Transcribe.LanguageCode,
	})

	if cfg.Metrics.PushgatewayURL != "" {
		if pushErr := metrics.Push(cfg.Metrics.PushgatewayURL, pushJobName); pushErr != nil {
			logrus.WithError(pushErr).Warn("Failed to push metrics")
		}
	}

	if err != nil {
		logrus.Fatalf("❌ transcription failed: %v", err)
	}

	logrus.WithField("text_path", result.TextPath).Info("✅ Transcript written")
}

func runWorker(ctx context.Context, cfg *config.Config, processor *services.Processor, metrics *services.Metrics) {
	rabbitService, err := services.NewRabbitMQService(cfg.RabbitMQ)
	if err != nil {
		logrus.Fatalf("❌ failed to init RabbitMQ: %v", err)
	}
	defer rabbitService.Close()
	processor.SetPublisher(rabbitService)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Error("Metrics server stopped")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logrus.WithField("queue", cfg.RabbitMQ.QueueName).Info("🎧 Waiting for jobs...")
	err = rabbitService.Consume(ctx, func(ctx context.Context, job models.JobMessage) {
		_, _ = processor.HandleJob(ctx, job)
	})
	if err != nil {
		logrus.Errorf("❌ failed to consume messages: %v", err)
		return
	}
	logrus.Info("Worker stopped")
}

func initLogger(cfg config.LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
