package common

import (
	"fmt"
	"path/filepath"
)

// Assert checks a condition and panics if it is false.
//
// Recoverable conditions (a full page, a lock timeout) return DBError values;
// assertions are reserved for invariants — truths about internal state that
// must always hold. If internal logic is broken (e.g., a slot count is
// negative), continuing execution risks persisting corrupted data, so we
// crash with a stack trace instead.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

const (
	offset64 = 14695981039346656037
	prime64  = 1099511628211
)

// Hash computes the FNV-1a 64-bit hash of the provided byte slice without
// allocation. It is a non-cryptographic hash optimized for speed and
// distribution, suitable for hash maps and identifier derivation.
func Hash(data []byte) uint64 {
	var h uint64 = offset64
	for _, b := range data {
		h ^= uint64(b)
		h *= prime64
	}
	return h
}

// TableIDForPath derives the stable table identifier for a heap file from
// its absolute path. The same path always yields the same id, so a file
// reopened after a restart keeps its identity.
func TableIDForPath(path string) TableID {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	h := Hash([]byte(abs))
	id := TableID(uint32(h) ^ uint32(h>>32))
	if id == InvalidTableID {
		id = 1
	}
	return id
}
