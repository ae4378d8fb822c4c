package sampling

import (
	"time"

	"taq-bars/internal/domain"
)

var day = time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)

// mkTrades builds trades one second apart starting 09:30.
func mkTrades(prices []float64, volumes []int64) []*domain.Trade {
	start := day.Add(9*time.Hour + 30*time.Minute)
	trades := make([]*domain.Trade, len(prices))
	for i, p := range prices {
		var v int64 = 1
		if volumes != nil {
			v = volumes[i]
		}
		trades[i] = &domain.Trade{
			Symbol:    "TEST",
			Timestamp: start.Add(time.Duration(i) * time.Second),
			Price:     p,
			Volume:    v,
		}
	}
	return trades
}

func tradeAt(ts time.Time, price float64, volume int64) *domain.Trade {
	return &domain.Trade{Symbol: "TEST", Timestamp: ts, Price: price, Volume: volume}
}

func ohlc(b domain.Bar) [4]float64 {
	return [4]float64{b.Open, b.High, b.Low, b.Close}
}
