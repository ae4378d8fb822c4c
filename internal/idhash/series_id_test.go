package idhash

import (
	"testing"

	"taq-bars/internal/domain"
)

func TestComputeSeriesID(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		policy domain.PolicyKind
		params string
	}{
		{name: "time bars", symbol: "AAPL", policy: domain.PolicyTime, params: "window=20T,volume=false"},
		{name: "tick bars", symbol: "AAPL", policy: domain.PolicyTick, params: "ticks=15,volume=true"},
		{name: "empty params", symbol: "MSFT", policy: domain.PolicyVolume, params: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSeriesID(tt.symbol, tt.policy, tt.params)
			if len(got) != 64 {
				t.Errorf("Expected hash length 64, got %d", len(got))
			}
		})
	}
}

func TestComputeSeriesID_Deterministic(t *testing.T) {
	got := ComputeSeriesID("A", domain.PolicyTick, "ticks=3,volume=false")
	again := ComputeSeriesID("A", domain.PolicyTick, "ticks=3,volume=false")
	if got != again {
		t.Errorf("Determinism failed: %s != %s", got, again)
	}
}

func TestComputeSeriesID_DifferentInputs(t *testing.T) {
	base := ComputeSeriesID("AAPL", domain.PolicyVolume, "threshold=100,partial=false")

	if base == ComputeSeriesID("MSFT", domain.PolicyVolume, "threshold=100,partial=false") {
		t.Error("Different symbol should produce different hash")
	}
	if base == ComputeSeriesID("AAPL", domain.PolicyDollar, "threshold=100,partial=false") {
		t.Error("Different policy should produce different hash")
	}
	if base == ComputeSeriesID("AAPL", domain.PolicyVolume, "threshold=100,partial=true") {
		t.Error("Different params should produce different hash")
	}
}
