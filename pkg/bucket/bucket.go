package bucket

import (
	"crypto/sha256"
	"encoding/binary"
)

// maxUint64AsFloat is 2^64 as a float64, used to normalize the truncated
// digest into [0,1). The division can never yield exactly 1.0 because the
// numerator is at most 2^64-1.
const maxUint64AsFloat = float64(1 << 63) * 2

// Hash maps an identifier to a stable pseudo-random point in [0,1).
//
// SHA-256 is used instead of a faster non-cryptographic hash to guarantee a
// uniform distribution even for highly structured identifiers (sequential
// user IDs, common prefixes). The first 8 bytes of the digest are interpreted
// as a big-endian uint64 and normalized.
func Hash(id string) float64 {
	sum := sha256.Sum256([]byte(id))
	return float64(binary.BigEndian.Uint64(sum[:8])) / maxUint64AsFloat
}

// InRollout reports whether the identifier falls inside a rollout of the
// given percentage. Percent is clamped to [0,100], so callers never need to
// range-check configuration values first.
//
// Because Hash is stable, the set of identifiers inside an N% rollout is a
// strict subset of the set inside any larger rollout.
func InRollout(id string, percent float64) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return Hash(id) < percent/100
}
