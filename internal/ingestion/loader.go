package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"taq-bars/internal/observability"
	"taq-bars/internal/storage"
)

// Loader moves delimited trade files into a trade store.
// Files are identified by content checksum; a file already recorded in the
// ingest log is skipped. Duplicate trades are rejected by the store.
type Loader struct {
	tradeStore storage.TradeStore
	ingestLog  storage.IngestLogStore

	location          *time.Location
	symbols           []string
	excludeConditions []string
	hours             *SessionHours
	skipInvalid       bool
	logger            *slog.Logger
	clock             func() time.Time
}

// LoaderOptions contains configuration for creating a Loader.
type LoaderOptions struct {
	TradeStore storage.TradeStore
	IngestLog  storage.IngestLogStore // optional

	// Location of the exchange clock. Defaults to UTC.
	Location *time.Location

	Symbols           []string      // keep only these symbols when non-empty
	ExcludeConditions []string      // drop these sale conditions before storing
	Hours             *SessionHours // keep only trades inside these hours when set
	SkipInvalid       bool

	Logger *slog.Logger
	Clock  func() time.Time
}

// NewLoader creates a new file loader.
func NewLoader(opts LoaderOptions) *Loader {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Loader{
		tradeStore:        opts.TradeStore,
		ingestLog:         opts.IngestLog,
		location:          loc,
		symbols:           opts.Symbols,
		excludeConditions: opts.ExcludeConditions,
		hours:             opts.Hours,
		skipInvalid:       opts.SkipInvalid,
		logger:            logger.With("component", "ingestion"),
		clock:             clock,
	}
}

// SessionHours bounds the trading session as offsets from midnight.
type SessionHours struct {
	Open  time.Duration
	Close time.Duration
}

// LoadResult reports one LoadFile call.
type LoadResult struct {
	Path     string
	Checksum string
	Skipped  bool // already ingested
	Stats    DelimitedStats
	Excluded int // dropped by sale condition or session hours
	Stored   int
	Duration time.Duration
}

// LoadFile parses path and stores its trades in one InsertBulk.
// sessionDate may be zero, in which case it is taken from an 8-digit
// YYYYMMDD run in the file name.
func (l *Loader) LoadFile(ctx context.Context, path string, sessionDate time.Time) (*LoadResult, error) {
	start := time.Now()
	res := &LoadResult{Path: path}

	if sessionDate.IsZero() {
		d, err := SessionDateFromName(path, l.location)
		if err != nil {
			return nil, err
		}
		sessionDate = d
	}

	sum, err := fileChecksum(path)
	if err != nil {
		return nil, err
	}
	res.Checksum = sum

	if l.ingestLog != nil {
		done, err := l.ingestLog.IsIngested(ctx, sum)
		if err != nil {
			return nil, fmt.Errorf("check ingest log: %w", err)
		}
		if done {
			res.Skipped = true
			observability.RecordFileSkipped()
			l.logger.Info("file already ingested", "path", path, "checksum", sum)
			return res, nil
		}
	}

	src := &DelimitedSource{
		Path:        path,
		SessionDate: sessionDate,
		Symbols:     l.symbols,
		SkipInvalid: l.skipInvalid,
		Logger:      l.logger,
	}
	trades, err := src.Trades(ctx)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	res.Stats = src.Stats()

	kept := ExcludeConditions(trades, l.excludeConditions)
	if l.hours != nil {
		kept = FilterTradingHours(kept, l.hours.Open, l.hours.Close)
	}
	res.Excluded = len(trades) - len(kept)
	SortTrades(kept)

	if len(kept) > 0 {
		if err := l.tradeStore.InsertBulk(ctx, kept); err != nil {
			return nil, fmt.Errorf("store trades from %s: %w", path, err)
		}
	}
	res.Stored = len(kept)

	if l.ingestLog != nil {
		err := l.ingestLog.MarkIngested(ctx, &storage.IngestedFile{
			Checksum:   sum,
			Path:       path,
			Rows:       int64(res.Stored),
			IngestedAt: l.clock().UnixMilli(),
		})
		if err != nil {
			return nil, fmt.Errorf("mark ingested: %w", err)
		}
	}

	res.Duration = time.Since(start)
	observability.RecordTradesIngested(res.Stored, res.Duration.Seconds())
	l.logger.Info("file ingested",
		"path", path,
		"rows", res.Stats.Rows,
		"stored", res.Stored,
		"excluded", res.Excluded,
		"invalid", res.Stats.Invalid,
		"duration", res.Duration,
	)
	return res, nil
}

// LoadFiles loads each path in order, stopping at the first error.
func (l *Loader) LoadFiles(ctx context.Context, paths []string, sessionDate time.Time) ([]*LoadResult, error) {
	results := make([]*LoadResult, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := l.LoadFile(ctx, p, sessionDate)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

var sessionDatePattern = regexp.MustCompile(`(\d{8})`)

// SessionDateFromName extracts a YYYYMMDD date from the base name of path.
func SessionDateFromName(path string, loc *time.Location) (time.Time, error) {
	base := filepath.Base(path)
	for _, m := range sessionDatePattern.FindAllString(base, -1) {
		if d, err := time.ParseInLocation("20060102", m, loc); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("no YYYYMMDD session date in file name %q", base)
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open trade file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
