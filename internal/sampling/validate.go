package sampling

import (
	"fmt"
	"math"

	"taq-bars/internal/domain"
)

// ValidateTrades checks every field the algorithms read and the ordering
// of timestamps. Errors wrap ErrMalformedInput and name the row index.
func ValidateTrades(trades []*domain.Trade) error {
	for i, t := range trades {
		if err := validateTrade(t); err != nil {
			return fmt.Errorf("%w: row %d: %s", ErrMalformedInput, i, err)
		}
		if i > 0 && t.Timestamp.Before(trades[i-1].Timestamp) {
			return fmt.Errorf("%w: row %d: timestamp %s before previous %s",
				ErrMalformedInput, i, t.Timestamp.Format(timeLayout), trades[i-1].Timestamp.Format(timeLayout))
		}
	}
	return nil
}

const timeLayout = "2006-01-02T15:04:05.000000000"

func validateTrade(t *domain.Trade) error {
	switch {
	case t == nil:
		return fmt.Errorf("nil trade")
	case t.Timestamp.IsZero():
		return fmt.Errorf("missing timestamp")
	case math.IsNaN(t.Price) || math.IsInf(t.Price, 0):
		return fmt.Errorf("price is not finite")
	case t.Price <= 0:
		return fmt.Errorf("price must be positive, got %v", t.Price)
	case t.Volume < 0:
		return fmt.Errorf("volume must be non-negative, got %d", t.Volume)
	}
	return nil
}
