package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"homeprice/config"
	"homeprice/db"
	qhttp "homeprice/http"
	"homeprice/logging"
	"homeprice/ml"
	"homeprice/monitoring"
	"homeprice/predict"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogConfig())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) (err error) {
	logger.Info("configuration loaded",
		zap.String("addr", cfg.Addr()),
		zap.String("artifacts_source", cfg.Artifacts.Source),
		zap.Strings("artifact_paths", cfg.ArtifactPaths()),
		zap.Int("cache_size", cfg.Cache.Size),
	)

	// 2. Load artifacts before accepting traffic
	encoder, model, err := loadArtifacts(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", predict.ErrModelUnavailable, err)
	}
	logger.Info("artifacts loaded",
		zap.Int("locations", encoder.Catalog().Len()),
		zap.Int("features", encoder.Width()),
		zap.String("baseline_location", encoder.Catalog().Baseline()),
	)

	var watcher *monitoring.ArtifactWatcher
	if cfg.Artifacts.Watch {
		watcher, err = monitoring.NewArtifactWatcher(logger, cfg.ArtifactPaths()...)
		if err != nil {
			logger.Warn("artifact watcher disabled", zap.Error(err))
			watcher = nil
		}
	}

	counters := monitoring.NewCounters()
	svc, err := predict.NewService(encoder, model,
		predict.WithLogger(logger),
		predict.WithCounters(counters),
		predict.WithCacheSize(cfg.Cache.Size),
		predict.WithChangeDetector(watcher),
	)
	if err != nil {
		return multierr.Append(err, watcher.Close())
	}

	// 3. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Addr:           cfg.Addr(),
		Timeout:        cfg.Server.Timeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, qhttp.NewHandler(svc, logger), logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	// 4. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		err = server.Stop()
	case err = <-serveErr:
	}

	logger.Info("final counters", zap.Any("requests", counters.Snapshot()))
	return multierr.Append(err, watcher.Close())
}

// loadArtifacts reads the columns artifact and the model from the
// configured source and checks that they agree.
func loadArtifacts(cfg *config.Config) (*ml.FeatureEncoder, ml.Regressor, error) {
	var (
		columns *ml.ColumnsArtifact
		model   ml.Regressor
		err     error
	)

	switch cfg.Artifacts.Source {
	case config.SourceSQLite:
		store, openErr := db.OpenArtifactStore(cfg.Artifacts.BundlePath)
		if openErr != nil {
			return nil, nil, openErr
		}
		defer store.Close()
		if columns, err = store.LoadColumns(); err != nil {
			return nil, nil, err
		}
		if model, err = store.LoadLinearModel(); err != nil {
			return nil, nil, err
		}
	default:
		if columns, err = ml.LoadColumns(cfg.Artifacts.ColumnsPath); err != nil {
			return nil, nil, err
		}
		if model, err = ml.LoadModel(cfg.Artifacts.ModelType, cfg.Artifacts.ModelPath); err != nil {
			return nil, nil, err
		}
	}

	encoder, err := columns.Encoder()
	if err != nil {
		return nil, nil, fmt.Errorf("columns artifact: %w", err)
	}
	if err := ml.VerifyModel(encoder, model); err != nil {
		return nil, nil, err
	}
	return encoder, model, nil
}
