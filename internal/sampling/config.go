package sampling

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"taq-bars/internal/domain"
)

// WindowUnit is the unit of a time-bar window.
type WindowUnit string

// Supported window units.
const (
	UnitMinute WindowUnit = "T"
	UnitSecond WindowUnit = "S"
)

// ParseWindowUnit accepts the short codes T/S and their common spellings.
func ParseWindowUnit(s string) (WindowUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "m", "min", "minute", "minutes":
		return UnitMinute, nil
	case "s", "sec", "second", "seconds":
		return UnitSecond, nil
	default:
		return "", fmt.Errorf("%w: unknown window unit %q", ErrInvalidConfiguration, s)
	}
}

// Duration returns the length of one unit, or 0 for an unknown unit.
func (u WindowUnit) Duration() time.Duration {
	switch u {
	case UnitMinute:
		return time.Minute
	case UnitSecond:
		return time.Second
	}
	return 0
}

// Defaults used by DefaultConfig.
const (
	DefaultTimeWindowSize  = 20
	DefaultTimeWindowUnit  = UnitMinute
	DefaultTickCount       = 15
	DefaultVolumeThreshold = 100
	DefaultDollarThreshold = 10000
)

// TimeConfig configures time bars.
type TimeConfig struct {
	WindowSize    int        // number of units per window
	WindowUnit    WindowUnit // minute or second
	IncludeVolume bool       // report summed volume per interval
}

// Window returns the window length.
func (c TimeConfig) Window() time.Duration {
	return time.Duration(c.WindowSize) * c.WindowUnit.Duration()
}

// Validate rejects non-positive windows and unknown units.
func (c TimeConfig) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w: time window size must be positive, got %d", ErrInvalidConfiguration, c.WindowSize)
	}
	if c.WindowUnit.Duration() == 0 {
		return fmt.Errorf("%w: unknown window unit %q", ErrInvalidConfiguration, c.WindowUnit)
	}
	return nil
}

// Params returns the canonical parameter string.
func (c TimeConfig) Params() string {
	return fmt.Sprintf("window=%d%s,volume=%t", c.WindowSize, c.WindowUnit, c.IncludeVolume)
}

// TickConfig configures tick bars.
type TickConfig struct {
	TickCount     int  // trades per bar
	IncludeVolume bool // report summed volume per bar
}

// Validate rejects a non-positive tick count.
func (c TickConfig) Validate() error {
	if c.TickCount <= 0 {
		return fmt.Errorf("%w: tick count must be positive, got %d", ErrInvalidConfiguration, c.TickCount)
	}
	return nil
}

// Params returns the canonical parameter string.
func (c TickConfig) Params() string {
	return fmt.Sprintf("ticks=%d,volume=%t", c.TickCount, c.IncludeVolume)
}

// VolumeConfig configures volume bars.
type VolumeConfig struct {
	Threshold int64 // cumulative volume that closes a bar

	// EmitPartialTrailingBar flushes trades left below the threshold at the
	// end of the stream as a short final bar. Off by default: trailing
	// trades are dropped.
	EmitPartialTrailingBar bool
}

// Validate rejects a non-positive threshold.
func (c VolumeConfig) Validate() error {
	if c.Threshold <= 0 {
		return fmt.Errorf("%w: volume threshold must be positive, got %d", ErrInvalidConfiguration, c.Threshold)
	}
	return nil
}

// Params returns the canonical parameter string.
func (c VolumeConfig) Params() string {
	return fmt.Sprintf("threshold=%d,partial=%t", c.Threshold, c.EmitPartialTrailingBar)
}

// DollarConfig configures dollar bars.
type DollarConfig struct {
	Threshold decimal.Decimal // cumulative price×volume that closes a bar

	// EmitPartialTrailingBar has the same meaning as in VolumeConfig.
	EmitPartialTrailingBar bool
}

// Validate rejects a non-positive threshold.
func (c DollarConfig) Validate() error {
	if !c.Threshold.IsPositive() {
		return fmt.Errorf("%w: dollar threshold must be positive, got %s", ErrInvalidConfiguration, c.Threshold)
	}
	return nil
}

// Params returns the canonical parameter string.
func (c DollarConfig) Params() string {
	return fmt.Sprintf("threshold=%s,partial=%t", c.Threshold, c.EmitPartialTrailingBar)
}

// Config enumerates every recognised option for the four policies.
type Config struct {
	Time   TimeConfig
	Tick   TickConfig
	Volume VolumeConfig
	Dollar DollarConfig
}

// DefaultConfig returns the documented defaults: 20-minute windows,
// 15-tick bars, volume threshold 100 and dollar threshold 10000, with
// volume reporting off and trailing partial bars dropped.
func DefaultConfig() Config {
	return Config{
		Time:   TimeConfig{WindowSize: DefaultTimeWindowSize, WindowUnit: DefaultTimeWindowUnit},
		Tick:   TickConfig{TickCount: DefaultTickCount},
		Volume: VolumeConfig{Threshold: DefaultVolumeThreshold},
		Dollar: DollarConfig{Threshold: decimal.NewFromInt(DefaultDollarThreshold)},
	}
}

// Validate checks the section used by policy.
func (c Config) Validate(policy domain.PolicyKind) error {
	switch policy {
	case domain.PolicyTime:
		return c.Time.Validate()
	case domain.PolicyTick:
		return c.Tick.Validate()
	case domain.PolicyVolume:
		return c.Volume.Validate()
	case domain.PolicyDollar:
		return c.Dollar.Validate()
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidConfiguration, policy)
	}
}

// Params returns the canonical parameter string of the section used by policy.
func (c Config) Params(policy domain.PolicyKind) string {
	switch policy {
	case domain.PolicyTime:
		return c.Time.Params()
	case domain.PolicyTick:
		return c.Tick.Params()
	case domain.PolicyVolume:
		return c.Volume.Params()
	case domain.PolicyDollar:
		return c.Dollar.Params()
	}
	return ""
}
