package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog"

	"fillReconciler/internal/common/dto"
	"fillReconciler/internal/domain/entity"
	"fillReconciler/internal/repository"
	"fillReconciler/pkg/utils"
)

var ErrInvalidFill = errors.New("invalid fill")

type IOrderCreatorService interface {
	CreateOrder(ctx context.Context, fill dto.FillDto) (entity.Order, error)
	ImportFills(ctx context.Context, fills []dto.FillDto) (int, error)
	FindOrder(ctx context.Context, orderID string) (dto.OrderDto, error)
}

// OrderCreatorService loads executed fills into the order store. It never
// touches unmatched quantities of existing orders; that is the checker's job.
type OrderCreatorService struct {
	orderRepo       repository.IOrderRepository
	transactionRepo repository.ITransactionRepository
	logger          zerolog.Logger
}

func NewOrderCreatorService(orderRepo repository.IOrderRepository, transactionRepo repository.ITransactionRepository, logger zerolog.Logger) *OrderCreatorService {
	return &OrderCreatorService{
		orderRepo:       orderRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

func (s *OrderCreatorService) CreateOrder(ctx context.Context, fill dto.FillDto) (entity.Order, error) {
	order, err := toOrder(fill)
	if err != nil {
		return entity.Order{}, err
	}
	if err := s.orderRepo.CreateOrder(ctx, &order); err != nil {
		return entity.Order{}, err
	}
	return order, nil
}

// ImportFills stores fills all-or-nothing and returns how many were stored.
func (s *OrderCreatorService) ImportFills(ctx context.Context, fills []dto.FillDto) (int, error) {
	err := s.transactionRepo.WithTransaction(ctx, func(txCtx context.Context) error {
		for i, fill := range fills {
			if _, err := s.CreateOrder(txCtx, fill); err != nil {
				return fmt.Errorf("fill %d (%s): %w", i, fill.OrderID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int("fills", len(fills)).Msg("import aborted")
		return 0, err
	}
	s.logger.Info().Int("fills", len(fills)).Msg("fills imported")
	return len(fills), nil
}

// FindOrder returns the order with every match that references it.
func (s *OrderCreatorService) FindOrder(ctx context.Context, orderID string) (dto.OrderDto, error) {
	order, err := s.orderRepo.FindOrderById(ctx, orderID)
	if err != nil {
		return dto.OrderDto{}, err
	}
	matches, err := s.transactionRepo.FindMatchesByOrder(ctx, orderID)
	if err != nil {
		return dto.OrderDto{}, err
	}

	var out dto.OrderDto
	if err := copier.Copy(&out, &order); err != nil {
		return dto.OrderDto{}, err
	}
	out.Side = string(order.Side)
	out.Matches = make([]dto.MatchDto, 0, len(matches))
	for _, m := range matches {
		var md dto.MatchDto
		if err := copier.Copy(&md, &m); err != nil {
			return dto.OrderDto{}, err
		}
		md.Mode = string(m.Mode)
		out.Matches = append(out.Matches, md)
	}
	return out, nil
}

func toOrder(fill dto.FillDto) (entity.Order, error) {
	side, err := utils.ParseSide(fill.Side)
	if err != nil {
		return entity.Order{}, fmt.Errorf("%w: %v", ErrInvalidFill, err)
	}
	if fill.Time.IsZero() {
		return entity.Order{}, fmt.Errorf("%w: %s has no fill time", ErrInvalidFill, fill.OrderID)
	}
	order := entity.Order{
		OrderID:      strings.TrimSpace(fill.OrderID),
		Symbol:       strings.TrimSpace(fill.Symbol),
		Timeframe:    strings.TrimSpace(fill.Timeframe),
		Side:         side,
		Quantity:     fill.Quantity,
		Price:        fill.Price,
		Commission:   fill.Commission,
		UnmatchedQty: fill.Quantity,
		Time:         fill.Time.UTC(),
	}
	if err := order.Validate(); err != nil {
		return entity.Order{}, fmt.Errorf("%w: %v", ErrInvalidFill, err)
	}
	return order, nil
}
