package compress

// ZstdCompressor provides Zstandard compression for column file buffers.
//
// This compressor favors compression ratio over speed, making it suited
// for cold-storage column files and buffers that are written once and
// read rarely. Delta and Frame-of-Reference encoded integer buffers in
// particular compress well under Zstd since their byte distributions
// are already narrow.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd compressor instance
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
