package service

import (
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// Fingerprint hashes the raw (pre-packaging) guest bytes with xxh3's
// 128-bit Hash128, per SPEC_FULL.md §4.7's resolution of spec.md §9's
// hash-width Open Question. Deterministic and collision-resistant enough
// that identical uploads always produce identical DTO hashes (spec.md §8).
func Fingerprint(raw []byte) string {
	sum := xxh3.Hash128(raw).Bytes()
	return hex.EncodeToString(sum[:])
}
