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

	pruner := batch.NewPruner(env.Store, env.Publisher, cfg.Batch.RetentionKeep, "pruner")
	result, err := pruner.Run(ctx)
	if err != nil {
		logger.Error("Prune failed", zap.Error(err))
		util.SyncLogger()
		os.Exit(1)
	}

	logger.Info("Done", zap.Int64("before", result.Before), zap.Int64("deleted", result.Deleted))
}
