package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/core"
	"github.com/joseph-ayodele/quizgen/internal/core/async"
	"github.com/joseph-ayodele/quizgen/internal/export"
	"github.com/joseph-ayodele/quizgen/internal/ingest"
	"github.com/joseph-ayodele/quizgen/internal/llm/provider"
	"github.com/joseph-ayodele/quizgen/internal/pipeline"
	repo "github.com/joseph-ayodele/quizgen/internal/repository"
	svc "github.com/joseph-ayodele/quizgen/internal/server"
	ingestsvc "github.com/joseph-ayodele/quizgen/internal/services/ingest"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("quizgend exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	db, err := svc.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := svc.PingDB(ctx, db, logger, 5*time.Second); err != nil {
		return err
	}
	logger.Info("database ready", "dialect", db.Dialect())

	extractor, closeOCR, err := core.BuildExtractor(cfg.Extraction, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeOCR(); err != nil {
			logger.Warn("ocr pool close failed", "error", err)
		}
	}()

	generator, closeLLM, err := provider.New(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLLM(); err != nil {
			logger.Warn("llm client close failed", "error", err)
		}
	}()

	stager, err := ingest.NewStager(cfg.Staging.Dir, cfg.Staging.Retention, logger)
	if err != nil {
		return err
	}

	opts := []core.Option{
		core.WithJobStore(repo.NewExtractJobRepository(db, logger), pipeline.ParamsKey(cfg.Extraction)),
	}
	if bucket := cfg.Staging.ArchiveBucket; bucket != "" {
		archiver, err := ingest.NewGCSArchiver(ctx, bucket, logger)
		if err != nil {
			return err
		}
		defer archiver.Close()
		opts = append(opts, core.WithArchiver(archiver))
	}
	processor := core.NewProcessor(logger, extractor, generator, stager, opts...)

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	serverOpts := []svc.Option{svc.WithQueueStats(queue)}
	if dir := cfg.Staging.WatchDir; dir != "" {
		ingestService, err := ingestsvc.NewService(queue, dir, logger)
		if err != nil {
			return err
		}
		serverOpts = append(serverOpts, svc.WithIngester(ingestService))
	}

	httpSrv := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: svc.New(processor, export.NewService(logger), db, svc.Config{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
		}, logger, serverOpts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("grpc health listening", "addr", lis.Addr().String())
		return grpcServer.Serve(lis)
	})

	if cfg.Staging.Retention == constants.RetentionRetain && cfg.Staging.RetainFor > 0 {
		sweeper := ingest.NewSweeper(stager.Dir(), cfg.Staging.RetainFor, cfg.Staging.SweepInterval, logger)
		g.Go(func() error {
			sweeper.Run(gctx)
			return nil
		})
	}

	if dir := cfg.Staging.WatchDir; dir != "" {
		paths, errs, err := ingest.StartWatcher(gctx, ingest.WatchConfig{
			Roots:       []string{dir},
			InitialScan: true,
			Debounce:    500 * time.Millisecond,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			for {
				select {
				case p, ok := <-paths:
					if !ok {
						return nil
					}
					if err := queue.Enqueue(gctx, p); err != nil {
						logger.Warn("watch enqueue failed", "path", p, "error", err)
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					logger.Error("watcher error", "error", err)
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		queue.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}
