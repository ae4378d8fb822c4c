package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"taq-bars/internal/domain"
	"taq-bars/internal/observability"
	"taq-bars/internal/sampling"
)

// Column names in the header of a delimited trade file.
const (
	ColTime          = "Time"
	ColExchange      = "Exchange"
	ColSymbol        = "Symbol"
	ColSaleCondition = "Sale Condition"
	ColTradeVolume   = "Trade Volume"
	ColTradePrice    = "Trade Price"
	ColSequence      = "Sequence Number"
)

var requiredColumns = []string{ColTime, ColExchange, ColSymbol, ColSaleCondition, ColTradeVolume, ColTradePrice}

// DelimitedStats counts what a DelimitedSource read.
type DelimitedStats struct {
	Rows     int // data rows seen, trailer excluded
	Trades   int // rows returned as trades
	Filtered int // rows dropped by the symbol filter
	Invalid  int // rows skipped as malformed (SkipInvalid only)
	Trailer  bool
}

// DelimitedSource reads pipe-separated trade rows with a header line.
// A final line that does not match the header width, such as the
// record-count trailer of exchange trade files, is skipped.
type DelimitedSource struct {
	// Path is opened when Reader is nil.
	Path   string
	Reader io.Reader

	// SessionDate supplies the calendar day and location for time-of-day values.
	SessionDate time.Time

	// Symbols, when non-empty, keeps only these symbols.
	Symbols []string

	// SkipInvalid counts and skips malformed rows instead of failing.
	SkipInvalid bool

	Logger *slog.Logger

	stats DelimitedStats
}

// Stats returns counters from the last Trades call.
func (s *DelimitedSource) Stats() DelimitedStats {
	return s.stats
}

// Trades implements TradeSource. Trades are returned in file order.
func (s *DelimitedSource) Trades(ctx context.Context) ([]*domain.Trade, error) {
	s.stats = DelimitedStats{}

	r := s.Reader
	if r == nil {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("open trade file: %w", err)
		}
		defer f.Close()
		r = f
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []*domain.Trade{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]struct{}, len(s.Symbols))
	for _, sym := range s.Symbols {
		keep[sym] = struct{}{}
	}

	trades := make([]*domain.Trade, 0, 1024)

	// Each row is parsed one step late so the last line can be recognised as a trailer.
	var pending []string
	pendingLine := 0
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", sampling.ErrMalformedInput, line+1, err)
		}
		line++

		if pending != nil {
			t, err := s.parsePending(pending, pendingLine, cols, len(header), keep, logger)
			if err != nil {
				return nil, err
			}
			if t != nil {
				trades = append(trades, t)
			}
		}
		pending, pendingLine = record, line

		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	if pending != nil {
		if isTrailer(pending, len(header)) {
			s.stats.Trailer = true
		} else {
			t, err := s.parsePending(pending, pendingLine, cols, len(header), keep, logger)
			if err != nil {
				return nil, err
			}
			if t != nil {
				trades = append(trades, t)
			}
		}
	}

	s.stats.Trades = len(trades)
	return trades, nil
}

func (s *DelimitedSource) parsePending(
	record []string,
	line int,
	cols columnIndex,
	width int,
	keep map[string]struct{},
	logger *slog.Logger,
) (*domain.Trade, error) {
	s.stats.Rows++

	if len(keep) > 0 && cols.symbol < len(record) {
		if _, ok := keep[strings.TrimSpace(record[cols.symbol])]; !ok {
			s.stats.Filtered++
			return nil, nil
		}
	}

	t, reason, err := parseRow(record, line, cols, width, s.SessionDate)
	if err == nil {
		return t, nil
	}
	if !s.SkipInvalid {
		return nil, err
	}

	s.stats.Invalid++
	observability.RecordRowRejected(reason)
	logger.Debug("skipping malformed row", "line", line, "reason", reason, "error", err)
	return nil, nil
}

type columnIndex struct {
	time, exchange, symbol, condition, volume, price int
	sequence                                         int // -1 when absent
}

func indexColumns(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := pos[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	cols := columnIndex{
		time:      lookup(ColTime),
		exchange:  lookup(ColExchange),
		symbol:    lookup(ColSymbol),
		condition: lookup(ColSaleCondition),
		volume:    lookup(ColTradeVolume),
		price:     lookup(ColTradePrice),
		sequence:  -1,
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: header missing columns %s", sampling.ErrMalformedInput, strings.Join(missing, ", "))
	}
	if i, ok := pos[strings.ToLower(ColSequence)]; ok {
		cols.sequence = i
	}
	return cols, nil
}

func isTrailer(record []string, width int) bool {
	if len(record) != width {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(record[0]), "END")
}

// parseRow converts one record. The returned reason labels rejection metrics.
func parseRow(record []string, line int, cols columnIndex, width int, session time.Time) (*domain.Trade, string, error) {
	if len(record) != width {
		return nil, "field_count", fmt.Errorf("%w: line %d: %d fields, header has %d",
			sampling.ErrMalformedInput, line, len(record), width)
	}

	ts, err := ParseTimeOfDay(strings.TrimSpace(record[cols.time]), session)
	if err != nil {
		return nil, "time", fmt.Errorf("line %d: %w", line, err)
	}

	volume, err := strconv.ParseInt(strings.TrimSpace(record[cols.volume]), 10, 64)
	if err != nil {
		return nil, "volume", fmt.Errorf("%w: line %d: trade volume %q", sampling.ErrMalformedInput, line, record[cols.volume])
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(record[cols.price]), 64)
	if err != nil {
		return nil, "price", fmt.Errorf("%w: line %d: trade price %q", sampling.ErrMalformedInput, line, record[cols.price])
	}

	seq := int64(line)
	if cols.sequence >= 0 {
		if raw := strings.TrimSpace(record[cols.sequence]); raw != "" {
			seq, err = strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, "sequence", fmt.Errorf("%w: line %d: sequence number %q", sampling.ErrMalformedInput, line, raw)
			}
		}
	}

	return &domain.Trade{
		Symbol:        strings.TrimSpace(record[cols.symbol]),
		Exchange:      strings.TrimSpace(record[cols.exchange]),
		Timestamp:     ts,
		Price:         price,
		Volume:        volume,
		SaleCondition: record[cols.condition],
		SequenceNo:    seq,
	}, "", nil
}
