package ingestion

import (
	"fmt"
	"sort"
	"time"

	"taq-bars/internal/domain"
	"taq-bars/internal/sampling"
)

// ParseTimeOfDay parses a fixed-width HHMMSS time with an optional
// fractional-second suffix of up to nine digits (e.g. "093000123456789")
// and places it on sessionDate in sessionDate's location.
func ParseTimeOfDay(raw string, sessionDate time.Time) (time.Time, error) {
	if len(raw) < 6 || len(raw) > 15 {
		return time.Time{}, fmt.Errorf("%w: time %q: want HHMMSS plus up to 9 fraction digits", sampling.ErrMalformedInput, raw)
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return time.Time{}, fmt.Errorf("%w: time %q: non-digit at offset %d", sampling.ErrMalformedInput, raw, i)
		}
	}

	hh := digits(raw[0:2])
	mm := digits(raw[2:4])
	ss := digits(raw[4:6])
	if hh > 23 || mm > 59 || ss > 59 {
		return time.Time{}, fmt.Errorf("%w: time %q out of range", sampling.ErrMalformedInput, raw)
	}

	// Right-pad the fraction to nanoseconds.
	nanos := 0
	frac := raw[6:]
	for i := 0; i < 9; i++ {
		nanos *= 10
		if i < len(frac) {
			nanos += int(frac[i] - '0')
		}
	}

	y, m, d := sessionDate.Date()
	return time.Date(y, m, d, hh, mm, ss, nanos, sessionDate.Location()), nil
}

func digits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// SortTrades orders trades by timestamp ASC. The sort is stable so trades
// sharing a timestamp keep their input order.
func SortTrades(trades []*domain.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Timestamp.Before(trades[j].Timestamp)
	})
}
