package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sanjeevkumarraob/askyourdoc/internal/api"
	"github.com/sanjeevkumarraob/askyourdoc/internal/config"
	"github.com/sanjeevkumarraob/askyourdoc/internal/document"
	"github.com/sanjeevkumarraob/askyourdoc/internal/ingest"
	"github.com/sanjeevkumarraob/askyourdoc/internal/search"
	"github.com/sanjeevkumarraob/askyourdoc/internal/service"
	"github.com/sanjeevkumarraob/askyourdoc/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; the config decides how to build it.
		zap.NewExample().Fatal("loading config", zap.Error(err))
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		zap.NewExample().Fatal("creating logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docStore, err := openStore(cfg.Storage, logger)
	if err != nil {
		logger.Fatal("opening document store", zap.Error(err))
	}
	defer docStore.Close()

	files, err := store.NewFileStore(cfg.Storage.UploadDir)
	if err != nil {
		logger.Fatal("opening upload directory", zap.Error(err))
	}

	processor := document.NewProcessor(logger, document.Options{
		MinParagraphLength:    cfg.Extract.MinParagraph,
		MinPDFParagraphLength: cfg.Extract.MinPDFParagraph,
		TitleMaxLength:        cfg.Title.MaxLength,
	})
	engine := search.NewEngine(logger, search.Config{
		MinSimilarity: cfg.Search.MinSimilarity,
		MaxFeatures:   cfg.Search.MaxFeatures,
		MinDF:         cfg.Search.MinDF,
		MaxDF:         cfg.Search.MaxDF,
		TopK:          cfg.Search.TopK,
		ContextWindow: cfg.Search.ContextWindow,
	})
	documents := service.NewDocuments(logger, processor, engine, docStore, files,
		service.WithSearchDefaults(cfg.Search.TopK, cfg.Search.ContextWindow))

	var watcher *ingest.Watcher
	if cfg.Watch.Dir != "" {
		watcher = ingest.NewWatcher(logger, documents, ingest.Config{
			Root:        cfg.Watch.Dir,
			InitialScan: cfg.Watch.InitialScan,
			Debounce:    cfg.Watch.Debounce,
			Exclude:     []string{files.Dir()},
		})
		if err := watcher.Start(ctx); err != nil {
			logger.Fatal("starting directory watcher", zap.Error(err))
		}
	}

	router := api.NewRouter(documents, api.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxUploadBytes: cfg.Upload.MaxSize,
		RateLimit:      cfg.RateLimit.RPS,
		RateBurst:      cfg.RateLimit.Burst,
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if watcher != nil {
		select {
		case <-watcher.Done():
		case <-shutdownCtx.Done():
			logger.Warn("directory watcher did not stop in time")
		}
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func openStore(cfg config.StorageConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("opened sqlite document store", zap.String("path", s.Path()))
		return s, nil
	default:
		return store.NewMemoryStore(store.MemoryConfig{TTL: cfg.DocumentTTL}), nil
	}
}
