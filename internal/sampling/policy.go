package sampling

import "taq-bars/internal/domain"

// Decision is a threshold policy's verdict on the latest trade.
type Decision int

const (
	// Continue keeps the trade in the open bar.
	Continue Decision = iota
	// CloseInclusive closes the bar with the trade as its last member.
	CloseInclusive
	// CloseBefore closes the bar without the trade; it opens the next bar.
	CloseBefore
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case CloseInclusive:
		return "close_inclusive"
	case CloseBefore:
		return "close_before"
	}
	return "unknown"
}

// TrailingRule says what happens to an open bar when input ends.
type TrailingRule int

const (
	// EmitTrailing flushes the partial bar.
	EmitTrailing TrailingRule = iota
	// DropTrailing discards the partial bar and its trades.
	DropTrailing
)

// ThresholdPolicy decides where bars close.
//
// Observe is called once per trade, in order. A policy returning
// CloseInclusive is Reset by the accumulator after the bar is emitted.
// A policy returning CloseBefore has already re-anchored itself on the
// trade that opens the next bar and is not reset.
type ThresholdPolicy interface {
	Observe(t *domain.Trade) Decision
	Trailing() TrailingRule
	Reset()
}
