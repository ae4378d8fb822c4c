package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"taq-bars/internal/domain"
)

// ComputeSeriesID computes a deterministic series_id using SHA256.
// Formula: SHA256(symbol|policy|params)
// Returns hex-encoded hash (64 characters).
func ComputeSeriesID(symbol string, policy domain.PolicyKind, params string) string {
	data := fmt.Sprintf("%s|%s|%s", symbol, string(policy), params)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
