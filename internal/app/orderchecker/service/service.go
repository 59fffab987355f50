package service

import (
	"context"
	"errors"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fillReconciler/internal/common/dto"
	"fillReconciler/internal/domain/entity"
	"fillReconciler/internal/metrics"
	"fillReconciler/internal/repository"
)

type IOrderCheckerService interface {
	Match(ctx context.Context, symbol, bucket string) (dto.MatchStats, error)
	ProxyMatch(ctx context.Context, symbol, primaryBucket string) (dto.MatchStats, error)
	LockableQuantity(ctx context.Context, symbol string, availableQty, currentPrice, minProfitRatio decimal.Decimal) (decimal.Decimal, error)
	SafeWindowStatus(ctx context.Context, symbol, primaryBucket string) (dto.SafeWindowStatus, error)
	BuyPool(ctx context.Context, symbol, bucket string) ([]dto.PoolEntryDto, error)
	ProcessSymbol(ctx context.Context, symbol string) (dto.MatchStats, error)
	ProcessTransactions(ctx context.Context, symbols []string) error
}

type Options struct {
	ProxyBucket     string
	CommissionScale int32
	LockWait        time.Duration
}

// OrderCheckerService is the entry point collaborators call. Every operation
// holds the symbol lock for its whole duration and every mutating run is one
// transaction, so a failed run leaves no matches behind and reports zero.
type OrderCheckerService struct {
	matcher         *Matcher
	orderRepo       repository.IOrderRepository
	transactionRepo repository.ITransactionRepository
	lockRepo        repository.ILockRepository
	logger          zerolog.Logger
	proxyBucket     string
	lockWait        time.Duration
}

func NewOrderCheckerService(
	orderRepo repository.IOrderRepository,
	transactionRepo repository.ITransactionRepository,
	lockRepo repository.ILockRepository,
	logger zerolog.Logger,
	opts Options,
) *OrderCheckerService {
	if opts.LockWait <= 0 {
		opts.LockWait = 10 * time.Second
	}
	return &OrderCheckerService{
		matcher:         NewMatcher(orderRepo, transactionRepo, WithCommissionScale(opts.CommissionScale)),
		orderRepo:       orderRepo,
		transactionRepo: transactionRepo,
		lockRepo:        lockRepo,
		logger:          logger,
		proxyBucket:     opts.ProxyBucket,
		lockWait:        opts.LockWait,
	}
}

func (s *OrderCheckerService) Match(ctx context.Context, symbol, bucket string) (dto.MatchStats, error) {
	return s.runLocked(ctx, entity.DirectMatch, symbol, bucket, s.matcher.Match)
}

// ProxyMatch runs the pooling bucket against the inventory of every bucket.
// An empty primaryBucket selects the configured pooling bucket.
func (s *OrderCheckerService) ProxyMatch(ctx context.Context, symbol, primaryBucket string) (dto.MatchStats, error) {
	if primaryBucket == "" {
		primaryBucket = s.proxyBucket
	}
	return s.runLocked(ctx, entity.ProxyMatch, symbol, primaryBucket, s.matcher.ProxyMatch)
}

func (s *OrderCheckerService) LockableQuantity(ctx context.Context, symbol string, availableQty, currentPrice, minProfitRatio decimal.Decimal) (decimal.Decimal, error) {
	unlock, err := s.lock(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	defer unlock()

	qty, err := s.matcher.LockableQuantity(ctx, symbol, availableQty, currentPrice, minProfitRatio)
	if err != nil {
		s.logFailure(err, "lockable quantity failed", symbol, "")
		return decimal.Zero, err
	}
	metrics.SetLockableQuantity(symbol, qty)
	s.logger.Debug().
		Str("symbol", symbol).
		Str("available", availableQty.String()).
		Str("price", currentPrice.String()).
		Str("ratio", minProfitRatio.String()).
		Str("lockable", qty.String()).
		Msg("lockable quantity computed")
	return qty, nil
}

func (s *OrderCheckerService) SafeWindowStatus(ctx context.Context, symbol, primaryBucket string) (dto.SafeWindowStatus, error) {
	if primaryBucket == "" {
		primaryBucket = s.proxyBucket
	}
	unlock, err := s.lock(ctx, symbol)
	if err != nil {
		return dto.SafeWindowStatus{}, err
	}
	defer unlock()

	var status dto.SafeWindowStatus
	err = s.transactionRepo.WithTransaction(ctx, func(txCtx context.Context) error {
		var readErr error
		status, readErr = s.matcher.SafeWindowStatus(txCtx, symbol, primaryBucket)
		return readErr
	})
	if err != nil {
		s.logFailure(err, "safe window status failed", symbol, primaryBucket)
		return dto.SafeWindowStatus{}, err
	}
	return status, nil
}

// BuyPool lists the buy inventory in the order a sell would consume it.
func (s *OrderCheckerService) BuyPool(ctx context.Context, symbol, bucket string) ([]dto.PoolEntryDto, error) {
	unlock, err := s.lock(ctx, symbol)
	if err != nil {
		return nil, err
	}
	defer unlock()

	pool, err := s.matcher.BuildPool(ctx, symbol, bucket)
	if err != nil {
		return nil, err
	}
	entries := make([]dto.PoolEntryDto, 0, pool.Len())
	if err := copier.Copy(&entries, pool.Entries()); err != nil {
		return nil, err
	}
	return entries, nil
}

// ProcessSymbol matches every bucket of the symbol on its own, then runs the
// pooling bucket against the shared inventory. A failing bucket does not stop
// the others; the returned stats cover the runs that committed.
func (s *OrderCheckerService) ProcessSymbol(ctx context.Context, symbol string) (dto.MatchStats, error) {
	total := dto.MatchStats{TotalMatchedQty: decimal.Zero, TotalProfit: decimal.Zero}
	buckets, err := s.orderRepo.GetBuckets(ctx, symbol)
	if err != nil {
		return total, err
	}

	var errs []error
	add := func(stats dto.MatchStats, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		total.MatchedPairs += stats.MatchedPairs
		total.TotalMatchedQty = total.TotalMatchedQty.Add(stats.TotalMatchedQty)
		total.TotalProfit = total.TotalProfit.Add(stats.TotalProfit)
	}
	for _, bucket := range buckets {
		add(s.Match(ctx, symbol, bucket))
	}
	if s.proxyBucket != "" {
		add(s.ProxyMatch(ctx, symbol, s.proxyBucket))
	}
	return total, errors.Join(errs...)
}

// ProcessTransactions runs ProcessSymbol for the given symbols, or for every
// symbol in the store when none are given.
func (s *OrderCheckerService) ProcessTransactions(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		var err error
		if symbols, err = s.orderRepo.GetSymbols(ctx); err != nil {
			return err
		}
	}
	var errs []error
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.ProcessSymbol(ctx, symbol); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type runFunc func(ctx context.Context, symbol, bucket string) (dto.MatchStats, error)

func (s *OrderCheckerService) runLocked(ctx context.Context, mode entity.MatchMode, symbol, bucket string, run runFunc) (dto.MatchStats, error) {
	if err := checkStream(symbol, bucket); err != nil {
		s.logger.Warn().Err(err).Str("mode", string(mode)).Msg("run rejected")
		return dto.MatchStats{}, err
	}
	unlock, err := s.lock(ctx, symbol)
	if err != nil {
		return dto.MatchStats{}, err
	}
	defer unlock()

	start := time.Now()
	var stats dto.MatchStats
	err = s.transactionRepo.WithTransaction(ctx, func(txCtx context.Context) error {
		var runErr error
		stats, runErr = run(txCtx, symbol, bucket)
		return runErr
	})
	elapsed := time.Since(start)
	metrics.ObserveRun(string(mode), elapsed, err)

	if err != nil {
		s.logFailure(err, "run failed", symbol, bucket)
		return dto.MatchStats{}, err
	}
	metrics.AddMatches(symbol, string(mode), stats.MatchedPairs, stats.TotalMatchedQty)
	s.logger.Info().
		Str("symbol", symbol).
		Str("bucket", bucket).
		Str("mode", string(mode)).
		Int("pairs", stats.MatchedPairs).
		Str("qty", stats.TotalMatchedQty.String()).
		Str("profit", stats.TotalProfit.String()).
		Dur("elapsed", elapsed).
		Msg("run complete")
	return stats, nil
}

// lock bounds only the wait for the symbol lock; the work done while holding
// it runs under the caller's ctx.
func (s *OrderCheckerService) lock(ctx context.Context, symbol string) (func(), error) {
	if symbol == "" {
		return nil, invalidArgument("symbol is empty")
	}
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()
	unlock, err := s.lockRepo.Lock(lockCtx, symbol)
	if err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("symbol lock")
		return nil, err
	}
	return unlock, nil
}

func (s *OrderCheckerService) logFailure(err error, msg, symbol, bucket string) {
	var event *zerolog.Event
	switch {
	case errors.Is(err, ErrInvalidArgument):
		event = s.logger.Warn()
	default:
		event = s.logger.Error()
	}
	var inv *InvariantError
	if errors.As(err, &inv) {
		event = event.Str("order_id", inv.OrderID)
	}
	event.Err(err).Str("symbol", symbol).Str("bucket", bucket).Msg(msg)
}
