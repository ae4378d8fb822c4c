package sampling

import "taq-bars/internal/domain"

// State is the accumulator's lifecycle state.
type State int

const (
	// Accumulating is the resting state: trades are buffered.
	Accumulating State = iota
	// Emitting is held only while a bar is being built from the buffer.
	Emitting
)

func (s State) String() string {
	if s == Emitting {
		return "emitting"
	}
	return "accumulating"
}

// Accumulator consumes trades in order and emits a bar each time its
// policy fires. It is single-consumer and not safe for concurrent use.
type Accumulator struct {
	policy  ThresholdPolicy
	emitter Emitter

	state   State
	buffer  []*domain.Trade
	bars    []domain.Bar
	dropped int
}

// NewAccumulator returns an accumulator in the Accumulating state.
func NewAccumulator(policy ThresholdPolicy, emitter Emitter) *Accumulator {
	return &Accumulator{policy: policy, emitter: emitter}
}

// State returns the current lifecycle state.
func (a *Accumulator) State() State {
	return a.state
}

// Buffered returns the number of trades in the open bar.
func (a *Accumulator) Buffered() int {
	return len(a.buffer)
}

// Push feeds one trade.
func (a *Accumulator) Push(t *domain.Trade) {
	switch a.policy.Observe(t) {
	case CloseInclusive:
		a.buffer = append(a.buffer, t)
		a.emit()
		a.policy.Reset()
	case CloseBefore:
		a.emit()
		a.buffer = append(a.buffer, t)
	default:
		a.buffer = append(a.buffer, t)
	}
}

// Finish applies the policy's trailing rule to the open bar and returns all
// bars emitted so far. The accumulator is reset and may be reused.
func (a *Accumulator) Finish() []domain.Bar {
	if len(a.buffer) > 0 {
		if a.policy.Trailing() == EmitTrailing {
			a.emit()
		} else {
			a.dropped += len(a.buffer)
			a.buffer = nil
		}
	}
	a.policy.Reset()

	bars := a.bars
	a.bars = nil
	return bars
}

// Dropped returns the number of trailing trades discarded by Finish.
func (a *Accumulator) Dropped() int {
	return a.dropped
}

func (a *Accumulator) emit() {
	if len(a.buffer) == 0 {
		return
	}
	a.state = Emitting
	a.bars = append(a.bars, a.emitter.Emit(a.buffer))
	// The bar now owns the window; start a fresh buffer.
	a.buffer = nil
	a.state = Accumulating
}
