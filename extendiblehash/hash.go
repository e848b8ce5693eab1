package extendiblehash

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// HashFunc produces a deterministic, fixed-width hash for a key of type K.
// Implementations must be pure: equal keys must always hash equally.
type HashFunc[K any] func(K) uint64

// HashString returns a HashFunc for string keys backed by xxhash, a fast
// non-cryptographic hash with a uniform low-bit distribution — the property
// the directory addressing in this package relies on.
func HashString() HashFunc[string] {
	return func(s string) uint64 {
		return xxhash.Sum64String(s)
	}
}

// HashBytes returns a hash function over raw bytes, backed by xxhash.
// Table requires comparable keys, which []byte is not, so callers with
// byte-slice keys convert to string once and wrap this in a
// HashFunc[string], e.g. func(k string) uint64 { return HashBytes()([]byte(k)) }.
func HashBytes() func([]byte) uint64 {
	return func(b []byte) uint64 {
		return xxhash.Sum64(b)
	}
}

// HashInt returns a HashFunc for any fixed-width signed or unsigned integer
// key type, mixed through xxhash so that low-bit directory addressing
// doesn't simply reproduce the key's own low bits.
func HashInt[K int | int8 | int16 | int32 | int64 | uint | uint8 | uint16 | uint32 | uint64]() HashFunc[K] {
	return func(k K) uint64 {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
		return xxhash.Sum64(buf[:])
	}
}

// HashFloat64 returns a HashFunc for float64 keys.
func HashFloat64() HashFunc[float64] {
	return func(f float64) uint64 {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		return xxhash.Sum64(buf[:])
	}
}

// HashIdentity returns a HashFunc that uses an integer key's own bit
// pattern as its hash, unmixed. It exists for tests and callers that want
// to reason by hand about which directory slot a key lands in; production
// callers should prefer HashInt, whose xxhash mixing spreads low bits
// evenly even for keys that share low-bit patterns (sequential IDs,
// power-of-two strides, and the like).
func HashIdentity[K int | int8 | int16 | int32 | int64 | uint | uint8 | uint16 | uint32 | uint64]() HashFunc[K] {
	return func(k K) uint64 {
		return uint64(k)
	}
}
