package compress

import "fmt"

// Algorithm identifies a buffer compression codec. serde stores one
// Algorithm byte per compressed buffer in the column file footer so a
// reader can pick the matching Decompressor without negotiation.
type Algorithm uint8

const (
	AlgorithmNone Algorithm = 0x1 // AlgorithmNone stores the buffer uncompressed.
	AlgorithmZstd Algorithm = 0x2 // AlgorithmZstd applies Zstandard compression.
	AlgorithmS2   Algorithm = 0x3 // AlgorithmS2 applies S2 (Snappy-compatible) compression.
	AlgorithmLZ4  Algorithm = 0x4 // AlgorithmLZ4 applies LZ4 compression.
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "None"
	case AlgorithmZstd:
		return "Zstd"
	case AlgorithmS2:
		return "S2"
	case AlgorithmLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Compressor compresses a buffer, typically the serialized bytes of an
// already-encoded column (a bit-packed block, a dictionary's code
// stream, a chunk's raw bytes) before it is written to a column file.
type Compressor interface {
	// Compress compresses data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor's transform.
type Decompressor interface {
	// Decompress decompresses data and returns the original bytes.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines compression and decompression for one algorithm.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec is a factory that builds a Codec for the given algorithm.
//
// Parameters:
//   - algorithm: Which codec to build (None, Zstd, S2, or LZ4)
//   - target: Description of the caller's use (for error messages)
func CreateCodec(algorithm Algorithm, target string) (Codec, error) {
	switch algorithm {
	case AlgorithmNone:
		return NewNoOpCompressor(), nil
	case AlgorithmZstd:
		return NewZstdCompressor(), nil
	case AlgorithmS2:
		return NewS2Compressor(), nil
	case AlgorithmLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, algorithm)
	}
}

var builtinCodecs = map[Algorithm]Codec{
	AlgorithmNone: NewNoOpCompressor(),
	AlgorithmZstd: NewZstdCompressor(),
	AlgorithmS2:   NewS2Compressor(),
	AlgorithmLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for algorithm.
func GetCodec(algorithm Algorithm) (Codec, error) {
	if codec, ok := builtinCodecs[algorithm]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression algorithm: %s", algorithm)
}
