package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"fillReconciler/internal/app/orderchecker/service"
	creator "fillReconciler/internal/app/ordercreator/service"
	"fillReconciler/internal/repository"
	"fillReconciler/pkg/config"
	"fillReconciler/pkg/database"
	"fillReconciler/pkg/logger"
)

type app struct {
	cfg     *config.Config
	db      *gorm.DB
	redis   *redis.Client
	logger  zerolog.Logger
	service service.IOrderCheckerService
	creator creator.IOrderCreatorService
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logger.New("reconciler", cfg.LogLevel, os.Stderr)

	db, err := database.NewDBConnection(&cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, db: db, logger: log}

	var lockRepo repository.ILockRepository
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		lockRepo = repository.NewRedisLockRepository(a.redis, cfg.Lock.TTL, log)
	} else {
		lockRepo = repository.NewLocalLockRepository()
	}

	orderRepo := repository.NewOrderRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	a.creator = creator.NewOrderCreatorService(orderRepo, transactionRepo, log)
	a.service = service.NewOrderCheckerService(
		orderRepo,
		transactionRepo,
		lockRepo,
		log,
		service.Options{
			ProxyBucket:     cfg.Matching.ProxyBucket,
			CommissionScale: cfg.Matching.CommissionScale,
			LockWait:        cfg.Lock.Wait,
		},
	)
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Error().Err(err).Msg("close database")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
