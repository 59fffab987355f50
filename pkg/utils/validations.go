package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fillReconciler/internal/domain/entity"
)

func ValidateSide(side entity.Side) error {
	switch side {
	case entity.Buy, entity.Sell:
		return nil
	default:
		return fmt.Errorf("invalid order side: %s", side)
	}
}

// ParseSide is case-insensitive and ignores surrounding spaces.
func ParseSide(s string) (entity.Side, error) {
	side := entity.Side(strings.ToUpper(strings.TrimSpace(s)))
	if err := ValidateSide(side); err != nil {
		return "", err
	}
	return side, nil
}

func ParseDecimal(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%s is empty", field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a decimal: %w", field, s, err)
	}
	return d, nil
}

func ParsePositiveDecimal(field, s string) (decimal.Decimal, error) {
	d, err := ParseDecimal(field, s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive, got %s", field, d)
	}
	return d, nil
}
