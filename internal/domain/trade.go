package domain

import "time"

// Trade represents a single executed trade (tick) for one symbol.
// Corresponds to trades table in PostgreSQL.
type Trade struct {
	ID            int64     // BIGSERIAL primary key (0 when not persisted)
	Symbol        string    // ticker symbol
	Exchange      string    // exchange code of the reporting venue
	Timestamp     time.Time // execution time
	Price         float64   // trade price
	Volume        int64     // shares traded
	SaleCondition string    // exchange sale-condition codes, may hold several
	SequenceNo    int64     // source sequence number, orders trades sharing a timestamp
}

// DollarValue returns price × volume for the trade.
func (t *Trade) DollarValue() float64 {
	return t.Price * float64(t.Volume)
}
