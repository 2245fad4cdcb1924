// Package collision provides a hash-bucketed string interner used by
// Dictionary encoding (and the sampling compressor's duplicate-sample
// detection) to assign stable integer codes to distinct values while
// remaining correct under xxhash collisions.
package collision

import "github.com/strata-db/strata/internal/hash"

// Interner assigns small integer codes to distinct keys in first-seen
// order. Codes are looked up by the exact key string, so a hash collision
// never yields a wrong code; the xxhash buckets only record collisions
// for HasCollision.
type Interner struct {
	buckets      map[uint64][]int // hash -> indices into order sharing that hash
	codes        map[string]int
	order        []string
	hasCollision bool
}

// NewInterner creates an empty Interner.
func NewInterner() *Interner {
	return &Interner{
		buckets: make(map[uint64][]int),
		codes:   make(map[string]int),
		order:   make([]string, 0),
	}
}

// Intern returns key's code, assigning the next sequential code the
// first time key is seen. isNew reports whether this call assigned a
// fresh code.
func (in *Interner) Intern(key string) (code int, isNew bool) {
	if code, ok := in.codes[key]; ok {
		return code, false
	}

	h := hash.ID(key)
	if existing := in.buckets[h]; len(existing) > 0 {
		in.hasCollision = true
	}

	code = len(in.order)
	in.order = append(in.order, key)
	in.codes[key] = code
	in.buckets[h] = append(in.buckets[h], code)

	return code, true
}

// Lookup returns key's code without interning it.
func (in *Interner) Lookup(key string) (code int, ok bool) {
	code, ok = in.codes[key]

	return
}

// HasCollision reports whether any two distinct keys shared an xxhash
// value during this Interner's lifetime. Informational only: Intern and
// Lookup remain correct regardless.
func (in *Interner) HasCollision() bool {
	return in.hasCollision
}

// Count returns the number of distinct keys interned so far.
func (in *Interner) Count() int {
	return len(in.order)
}

// Keys returns the interned keys in code order (Keys()[code] == key).
func (in *Interner) Keys() []string {
	return in.order
}

// Reset clears all interned state but keeps allocated capacity.
func (in *Interner) Reset() {
	for k := range in.buckets {
		delete(in.buckets, k)
	}
	for k := range in.codes {
		delete(in.codes, k)
	}
	in.order = in.order[:0]
	in.hasCollision = false
}
