package api

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"taq-bars/internal/domain"
	"taq-bars/internal/export"
	"taq-bars/internal/sampling"
)

// TradeRequest is one trade in a resample request.
type TradeRequest struct {
	Timestamp     time.Time `json:"t"`
	Price         float64   `json:"price"`
	Volume        int64     `json:"volume"`
	Exchange      string    `json:"exchange,omitempty"`
	SaleCondition string    `json:"sale_condition,omitempty"`
}

// ParamsRequest overrides the server's default parameters for the
// requested policy. Threshold is the volume (integer) or dollar threshold.
type ParamsRequest struct {
	WindowSize             *int             `json:"window_size,omitempty"`
	WindowUnit             string           `json:"window_unit,omitempty"`
	IncludeVolume          *bool            `json:"include_volume,omitempty"`
	TickCount              *int             `json:"tick_count,omitempty"`
	Threshold              *decimal.Decimal `json:"threshold,omitempty"`
	EmitPartialTrailingBar *bool            `json:"emit_partial_trailing_bar,omitempty"`
}

// ResampleRequest asks for one symbol's trades to be resampled under one policy.
type ResampleRequest struct {
	Symbol string         `json:"symbol" validate:"required,max=16"`
	Policy string         `json:"policy" validate:"required,oneof=TIME TICK VOLUME DOLLAR"`
	Params ParamsRequest  `json:"params"`
	Trades []TradeRequest `json:"trades"`

	// Store persists the series in the bar store.
	Store bool `json:"store,omitempty"`
}

// SeriesResponse is a bar series header.
type SeriesResponse struct {
	SeriesID      string `json:"series_id"`
	Symbol        string `json:"symbol"`
	Policy        string `json:"policy"`
	Params        string `json:"params"`
	BarCount      int    `json:"bar_count"`
	TradeCount    int    `json:"trade_count"`
	DroppedTrades int    `json:"dropped_trades"`
	CreatedAt     int64  `json:"created_at"`
}

// BarsResponse is a series header with its bars.
type BarsResponse struct {
	Series SeriesResponse `json:"series"`
	Bars   []export.Row   `json:"bars"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func toSeriesResponse(s *domain.BarSeries) SeriesResponse {
	return SeriesResponse{
		SeriesID:      s.SeriesID,
		Symbol:        s.Symbol,
		Policy:        string(s.Policy),
		Params:        s.Params,
		BarCount:      s.BarCount,
		TradeCount:    s.TradeCount,
		DroppedTrades: s.DroppedTrades,
		CreatedAt:     s.CreatedAt,
	}
}

func (r *ResampleRequest) normalize() {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	r.Policy = strings.ToUpper(strings.TrimSpace(r.Policy))
}

func (r *ResampleRequest) trades() []*domain.Trade {
	out := make([]*domain.Trade, len(r.Trades))
	for i, t := range r.Trades {
		out[i] = &domain.Trade{
			Symbol:        r.Symbol,
			Exchange:      t.Exchange,
			Timestamp:     t.Timestamp,
			Price:         t.Price,
			Volume:        t.Volume,
			SaleCondition: t.SaleCondition,
			SequenceNo:    int64(i + 1),
		}
	}
	return out
}

// Volume thresholds must fit in int64 before IntPart.
var (
	maxVolumeThreshold = decimal.NewFromInt(math.MaxInt64)
	minVolumeThreshold = decimal.NewFromInt(math.MinInt64)
)

// apply returns defaults with the overrides set in p.
func (p ParamsRequest) apply(kind domain.PolicyKind, defaults sampling.Config) (sampling.Config, error) {
	cfg := defaults
	if p.WindowSize != nil {
		cfg.Time.WindowSize = *p.WindowSize
	}
	if p.WindowUnit != "" {
		unit, err := sampling.ParseWindowUnit(p.WindowUnit)
		if err != nil {
			return cfg, err
		}
		cfg.Time.WindowUnit = unit
	}
	if p.IncludeVolume != nil {
		cfg.Time.IncludeVolume = *p.IncludeVolume
		cfg.Tick.IncludeVolume = *p.IncludeVolume
	}
	if p.TickCount != nil {
		cfg.Tick.TickCount = *p.TickCount
	}
	if p.EmitPartialTrailingBar != nil {
		cfg.Volume.EmitPartialTrailingBar = *p.EmitPartialTrailingBar
		cfg.Dollar.EmitPartialTrailingBar = *p.EmitPartialTrailingBar
	}
	if p.Threshold != nil {
		switch kind {
		case domain.PolicyVolume:
			if !p.Threshold.Equal(p.Threshold.Truncate(0)) {
				return cfg, fmt.Errorf("%w: volume threshold must be an integer, got %s", sampling.ErrInvalidConfiguration, p.Threshold)
			}
			if p.Threshold.GreaterThan(maxVolumeThreshold) || p.Threshold.LessThan(minVolumeThreshold) {
				return cfg, fmt.Errorf("%w: volume threshold %s out of range", sampling.ErrInvalidConfiguration, p.Threshold)
			}
			cfg.Volume.Threshold = p.Threshold.IntPart()
		case domain.PolicyDollar:
			cfg.Dollar.Threshold = *p.Threshold
		}
	}
	return cfg, nil
}
