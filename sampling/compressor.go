// Package sampling implements strata's recursive sampling compressor: for
// a given array it measures, via small trial encodes rather than full
// encodes, which of the eligible built-in encodings (constant, sparse,
// run-end, dictionary, bit-packed, frame-of-reference, delta, ALP,
// ALP-RD, FSST, roaring) yields the smallest extrapolated size, and
// applies the winner. Arrays longer than twice a configurable block size
// are first split into independently-compressed blocks and recombined with
// encoding/chunked, so different regions of a large column can each pick
// up the encoding that best fits their own local statistics, up to a
// bounded recursion depth.
package sampling

import (
	"fmt"

	"github.com/strata-db/strata/array"
	"github.com/strata-db/strata/dtype"
	"github.com/strata-db/strata/encoding/chunked"
	"github.com/strata-db/strata/internal/collision"
	"github.com/strata-db/strata/validity"
)

// NameChunked is the Result.Name reported when the sampling compressor
// split arr into blocks and recombined them with encoding/chunked, rather
// than applying a single leaf candidate.
const NameChunked = "chunked"

// Result reports which candidate, if any, the sampling compressor chose
// for an array, alongside the resulting node.
type Result struct {
	Array    *array.Array
	Name     string // candidate name, NameChunked, or "" if left unchanged
	EstBytes float64
}

// session carries the duplicate-block interner across one Compress call's
// recursion: splitting a large array into many same-valued blocks (a
// common case for sparse sensor data or padding) would otherwise repeat
// the full candidate trial-encode loop once per identical block.
type session struct {
	cfg   Config
	seen  *collision.Interner
	cache []Result
}

// Compress picks and applies the cheapest eligible encoding for arr,
// splitting into blocks and recursing when arr is large enough relative
// to cfg.BlockSize and cfg.MaxDepth allows another level. If no candidate
// beats leaving arr as-is, arr is returned unchanged — never an error;
// finding "no worthwhile candidate" is a normal outcome here, not the
// errs.ErrNoCandidates failure a caller that requires a transform would
// raise itself.
func Compress(arr *array.Array, cfg Config) (Result, error) {
	sess := &session{cfg: cfg, seen: collision.NewInterner()}

	return sess.compress(arr, 0)
}

func (sess *session) compress(arr *array.Array, depth int) (Result, error) {
	if arr.Len() == 0 {
		return Result{Array: arr}, nil
	}

	if depth < sess.cfg.MaxDepth && sess.cfg.BlockSize > 0 && arr.Len() > sess.cfg.BlockSize*2 {
		result, ok, err := sess.compressChunked(arr, depth)
		if err != nil {
			return Result{}, err
		}
		if ok {
			return result, nil
		}
	}

	return sess.compressLeaf(arr)
}

// compressChunked splits arr into cfg.BlockSize-row blocks, compresses
// each independently (possibly choosing a different candidate per
// block), and recombines them with encoding/chunked. ok is false if
// chunked.Encode itself rejects the split (e.g. a single resulting
// block), in which case the caller falls back to compressLeaf on the
// whole array.
func (sess *session) compressChunked(arr *array.Array, depth int) (Result, bool, error) {
	blocks, err := splitBlocks(arr, sess.cfg.BlockSize)
	if err != nil || len(blocks) < 2 {
		return Result{}, false, nil
	}

	children := make([]*array.Array, len(blocks))
	var estBytes float64
	for i, block := range blocks {
		sub, err := sess.compress(block, depth+1)
		if err != nil {
			return Result{}, false, err
		}
		children[i] = sub.Array
		estBytes += float64(sub.Array.NBytes())
	}

	encoded, err := chunked.Encode(arr.DType(), children)
	if err != nil {
		return Result{}, false, nil //nolint:nilerr // chunked rejection just means "don't chunk here"
	}

	return Result{Array: encoded, Name: NameChunked, EstBytes: estBytes}, true, nil
}

// compressLeaf runs the candidate cost model directly on arr with no
// further splitting, deduplicating against previously seen byte-identical
// leaves in this session.
func (sess *session) compressLeaf(arr *array.Array) (Result, error) {
	key := contentKey(arr)
	if code, ok := sess.seen.Lookup(key); ok {
		return sess.cache[code], nil
	}

	costs := make([]measuredCost, 0, 8)
	cands := candidatesFor(arr.DType())
	for _, cand := range cands {
		if !sess.cfg.isEligible(cand.name) {
			continue
		}
		if cost, ok := estimateCost(arr, cand, sess.cfg); ok {
			costs = append(costs, cost)
		}
	}

	result := Result{Array: arr}
	if best, ok := cheapest(costs); ok && best.bytes < float64(arr.NBytes()) {
		if cand := findCandidate(cands, best.name); cand.encode != nil {
			encoded, err := cand.encode(arr, sess.cfg)
			if err != nil {
				return Result{}, err
			}
			result = Result{Array: encoded, Name: best.name, EstBytes: best.bytes}
		}
	}

	// Intern assigns codes in append order, so the code it returns here
	// always equals this entry's index in sess.cache once appended.
	sess.seen.Intern(key)
	sess.cache = append(sess.cache, result)

	return result, nil
}

func findCandidate(cands []candidate, name string) candidate {
	for _, c := range cands {
		if c.name == name {
			return c
		}
	}

	return candidate{}
}

// splitBlocks slices arr into consecutive blockSize-row pieces, the final
// piece taking whatever remainder is left.
func splitBlocks(arr *array.Array, blockSize int) ([]*array.Array, error) {
	if blockSize <= 0 {
		return nil, nil
	}

	n := arr.Len()
	blocks := make([]*array.Array, 0, (n+blockSize-1)/blockSize)
	for start := 0; start < n; start += blockSize {
		stop := start + blockSize
		if stop > n {
			stop = n
		}

		block, err := arr.Slice(start, stop)
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, block)
	}

	return blocks, nil
}

// contentKey derives a stable interner key for arr's content (encoding,
// length, metadata, buffers, validity, and the keys of its children), so
// an array with byte-identical content encountered twice in one Compress
// call is measured only once.
func contentKey(arr *array.Array) string {
	key := fmt.Sprintf("%d|%d|", arr.EncodingID(), arr.Len()) + string(arr.Metadata())
	for i := 0; i < arr.NumBuffers(); i++ {
		b, err := arr.Buffer(i)
		if err != nil {
			continue
		}
		key += "|" + string(b)
	}

	v := arr.Validity()
	key += "|" + v.Kind().String()
	if v.Kind() == validity.KindBitmap {
		key += string(v.Bitmap())
	}
	for i := 0; i < arr.NumChildren(); i++ {
		if c, err := arr.Child(i, dtype.DType{}, -1); err == nil {
			key += "|(" + contentKey(c) + ")"
		}
	}

	return key
}
