package sampling

import (
	"context"
	"log/slog"
	"time"

	"taq-bars/internal/domain"
	"taq-bars/internal/storage"
)

// SamplingEngine resamples stored trades of one symbol into stored bar series.
type SamplingEngine interface {
	// RunSymbol resamples one symbol under every configured policy.
	RunSymbol(ctx context.Context, symbol string) ([]*domain.BarSeries, error)
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	TradeStore storage.TradeStore
	BarStore   storage.BarStore

	Config   Config
	Policies []domain.PolicyKind // defaults to domain.AllPolicies

	// ExcludeConditions drops trades whose sale condition contains any of these codes.
	ExcludeConditions []string

	// Concurrency bounds RunBatch fan-out across symbols. Values < 1 mean 1.
	Concurrency int

	// Location is the session time zone used to align time bars. Stored
	// trades are converted into it before resampling. Nil keeps them as loaded.
	Location *time.Location

	// SkipExisting treats an already stored series as success instead of an error.
	SkipExisting bool

	Logger *slog.Logger
	Clock  func() time.Time
}

// Runner implements SamplingEngine.
type Runner struct {
	tradeStore storage.TradeStore
	barStore   storage.BarStore

	config            Config
	policies          []domain.PolicyKind
	excludeConditions []string
	concurrency       int
	skipExisting      bool
	location          *time.Location

	logger *slog.Logger
	clock  func() time.Time
}

// NewRunner creates a new sampling runner.
func NewRunner(opts RunnerOptions) *Runner {
	policies := opts.Policies
	if len(policies) == 0 {
		policies = domain.AllPolicies
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Runner{
		tradeStore:        opts.TradeStore,
		barStore:          opts.BarStore,
		config:            opts.Config,
		policies:          policies,
		excludeConditions: opts.ExcludeConditions,
		concurrency:       concurrency,
		skipExisting:      opts.SkipExisting,
		location:          opts.Location,
		logger:            logger.With("component", "sampling"),
		clock:             clock,
	}
}
