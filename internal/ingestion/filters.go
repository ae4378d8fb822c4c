package ingestion

import (
	"strings"
	"time"

	"taq-bars/internal/domain"
)

// FilterSymbol keeps trades whose symbol equals symbol exactly.
func FilterSymbol(trades []*domain.Trade, symbol string) []*domain.Trade {
	out := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out
}

// ExcludeCondition drops trades whose sale condition contains code.
// An empty code drops nothing.
func ExcludeCondition(trades []*domain.Trade, code string) []*domain.Trade {
	if code == "" {
		return trades
	}
	out := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if !strings.Contains(t.SaleCondition, code) {
			out = append(out, t)
		}
	}
	return out
}

// ExcludeConditions applies ExcludeCondition for each code.
func ExcludeConditions(trades []*domain.Trade, codes []string) []*domain.Trade {
	for _, code := range codes {
		trades = ExcludeCondition(trades, code)
	}
	return trades
}

// FilterTradingHours keeps trades whose time of day lies in [openAt, closeAt].
// Both are offsets from midnight, e.g. 9h30m and 16h30m.
func FilterTradingHours(trades []*domain.Trade, openAt, closeAt time.Duration) []*domain.Trade {
	out := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		y, m, d := t.Timestamp.Date()
		tod := t.Timestamp.Sub(time.Date(y, m, d, 0, 0, 0, 0, t.Timestamp.Location()))
		if tod >= openAt && tod <= closeAt {
			out = append(out, t)
		}
	}
	return out
}
