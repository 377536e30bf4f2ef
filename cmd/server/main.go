package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/dasmlab/tripglot/pkg/cache"
	"github.com/dasmlab/tripglot/pkg/config"
	"github.com/dasmlab/tripglot/pkg/logging"
	"github.com/dasmlab/tripglot/pkg/server"
	"github.com/dasmlab/tripglot/pkg/service"
	"github.com/dasmlab/tripglot/pkg/translate"
)

var envFile = flag.String("env-file", ".env", "Path to a .env file (overridden by TRIPGLOT_ENV_FILE)")

func main() {
	flag.Parse()

	loadedFrom, envErr := config.LoadEnvFile(*envFile)

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		logger.WithError(envErr).Warn("Failed to load env file")
	} else if loadedFrom != "" {
		logger.WithField("path", loadedFrom).Debug("Loaded env file")
	}

	logger.WithFields(logrus.Fields{
		"environment":     cfg.Environment,
		"grpc_port":       cfg.GRPCPort,
		"http_port":       cfg.HTTPPort,
		"provider_order":  cfg.ProviderOrder,
		"last_resort":     cfg.LastResortProvider,
		"chunk_threshold": cfg.ChunkThreshold,
		"log_level":       cfg.LogLevel,
	}).Info("Starting tripglot server")

	registry, err := translate.BuildRegistry(cfg.Providers(logger))
	if err != nil {
		logger.WithError(err).Fatal("Failed to build provider registry")
	}

	// Report provider health; failures only mean the dispatcher will skip
	// past that provider at request time.
	healthCtx, healthCancel := context.WithTimeout(context.Background(), 10*time.Second)
	for _, p := range registry.All() {
		entry := logger.WithFields(logrus.Fields{
			"provider":  p.Name(),
			"available": p.IsAvailable(),
		})
		if hc, ok := p.(translate.HealthChecker); ok && p.IsAvailable() {
			if err := hc.CheckHealth(healthCtx); err != nil {
				entry.WithError(err).Warn("Provider health check failed, continuing anyway")
				continue
			}
		}
		entry.Info("Provider registered")
	}
	healthCancel()

	dispatcherOpts := []translate.Option{
		translate.WithThreshold(cfg.ChunkThreshold),
		translate.WithChunkBudget(cfg.ChunkBudget),
		translate.WithChunkDelay(cfg.ChunkDelay),
		translate.WithChunkConcurrency(cfg.ChunkConcurrency),
		translate.WithLogger(logger),
	}
	if name, err := translate.ParseProviderName(cfg.LastResortProvider); err == nil {
		fallback, ok := registry.Get(name)
		if !ok {
			// Not in PROVIDER_ORDER; build it standalone.
			fallback, err = translate.NewProvider(name, cfg.Providers(logger))
			if err != nil {
				logger.WithError(err).Fatal("Failed to create last resort provider")
			}
		}
		dispatcherOpts = append(dispatcherOpts, translate.WithFallbackProvider(fallback))
	}
	dispatcher := translate.NewDispatcher(registry, dispatcherOpts...)

	var translationCache cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		cacheCtx, cacheCancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := cache.NewRedisCache(cacheCtx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		cacheCancel()
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, translation cache disabled")
		} else {
			translationCache = rc
			logger.WithField("addr", cfg.RedisAddr).Info("Translation cache enabled")
		}
	}
	defer translationCache.Close()

	translationService := service.NewTranslationService(dispatcher, logger,
		service.WithCache(translationCache),
		service.WithBatching(cfg.BatchSize, cfg.BatchDelay),
	)

	jobQueue := service.NewJobQueue(logger)
	jobQueue.SetProcessor(service.NewJobProcessor(translationService, logger))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"port": cfg.GRPCPort,
		}).Fatal("Failed to listen on port")
	}

	var opts []grpc.ServerOption
	opts = append(opts, grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
		MinTime:             15 * time.Second,
		PermitWithoutStream: true,
	}))
	opts = append(opts, grpc.KeepaliveParams(keepalive.ServerParameters{
		MaxConnectionIdle:     5 * time.Minute,
		MaxConnectionAge:      30 * time.Minute,
		MaxConnectionAgeGrace: 5 * time.Second,
		Time:                  30 * time.Second,
		Timeout:               10 * time.Second,
	}))

	s := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(service.TranslationServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	service.RegisterTranslationServiceServer(s, service.NewGRPCServer(translationService, jobQueue, logger))

	// Enable reflection for grpcurl/debugging
	reflection.Register(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Provider availability gauges
	collector := translate.NewMetricsCollector(registry)
	collector.UpdateMetrics()
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				collector.UpdateMetrics()
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				jobQueue.CleanupOldJobs(cfg.JobRetention)
			case <-ctx.Done():
				return
			}
		}
	}()
	logger.WithFields(logrus.Fields{
		"cleanup_interval": "1m",
		"job_retention":    cfg.JobRetention.String(),
	}).Info("Started job cleanup goroutine")

	httpServer := server.NewHTTPServer(translationService, jobQueue, logger, server.Options{
		Port:               cfg.HTTPPort,
		CORSAllowedOrigins: cfg.CORSAllowedOriginsList(),
	})

	errChan := make(chan error, 2)
	go func() {
		if err := httpServer.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	go func() {
		logger.WithFields(logrus.Fields{
			"port": cfg.GRPCPort,
		}).Info("gRPC server listening")
		if err := s.Serve(lis); err != nil {
			errChan <- fmt.Errorf("failed to serve: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.WithError(err).Error("Server error")
		cancel()
		s.Stop()
		translationCache.Close()
		os.Exit(1)
	case sig := <-sigChan:
		logger.WithFields(logrus.Fields{
			"signal": sig.String(),
		}).Info("Received signal, shutting down gracefully...")

		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		stopped := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
			logger.Info("Server stopped gracefully")
		case <-shutdownCtx.Done():
			logger.Warn("Graceful shutdown timeout, forcing stop...")
			s.Stop()
		}
	}
}
