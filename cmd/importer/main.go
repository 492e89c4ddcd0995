package main

import (
	"context"
	"log"
	"os"
	"time"

	"transaction-service/config"
	"transaction-service/internal/batch"
	"transaction-service/internal/util"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	ctx := context.Background()

	env, err := batch.OpenEnv(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = env.Close(closeCtx)
	}()

	file, err := os.Open(cfg.Batch.ImportFile)
	if err != nil {
		logger.Fatal("Failed to open input", zap.String("file", cfg.Batch.ImportFile), zap.Error(err))
	}
	defer file.Close()

	logger.Info("Starting import", zap.String("file", cfg.Batch.ImportFile), zap.Int("batch_size", cfg.Batch.BatchSize))

	importer := batch.NewImporter(env.Store, env.Publisher, cfg.Batch.BatchSize, "importer")
	result, err := importer.Run(ctx, file)
	if err != nil {
		logger.Error("Import failed", zap.Int("rows_inserted", result.Rows), zap.Error(err))
		util.SyncLogger()
		os.Exit(1)
	}

	logger.Info("Finished", zap.Int("total_records", result.Rows))
}
