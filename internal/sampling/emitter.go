package sampling

import (
	"github.com/shopspring/decimal"

	"taq-bars/internal/domain"
)

// Emitter folds a window of trades into one bar.
type Emitter struct {
	IncludeVolume bool
	IncludeDollar bool
}

// Emit builds the bar for a non-empty window. The caller guarantees len(window) > 0.
func (e Emitter) Emit(window []*domain.Trade) domain.Bar {
	first := window[0]
	last := window[len(window)-1]

	bar := domain.Bar{
		Start:     first.Timestamp,
		End:       last.Timestamp,
		Open:      first.Price,
		High:      first.Price,
		Low:       first.Price,
		Close:     last.Price,
		TickCount: len(window),
	}

	var volume int64
	dollar := decimal.Zero
	for _, t := range window {
		if t.Price > bar.High {
			bar.High = t.Price
		}
		if t.Price < bar.Low {
			bar.Low = t.Price
		}
		volume += t.Volume
		if e.IncludeDollar {
			dollar = dollar.Add(tradeDollarValue(t))
		}
	}

	if e.IncludeVolume {
		bar.Volume = &volume
	}
	if e.IncludeDollar {
		v := dollar.InexactFloat64()
		bar.DollarValue = &v
	}
	return bar
}

func tradeDollarValue(t *domain.Trade) decimal.Decimal {
	return decimal.NewFromFloat(t.Price).Mul(decimal.NewFromInt(t.Volume))
}
