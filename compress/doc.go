// Package compress provides general-purpose compression codecs for the
// buffers a column file writes to disk.
//
// serde applies compression as an optional second stage after encoding:
// encoding exploits structure in the data (run-end, delta, dictionary,
// bit-packing), and compression further reduces whatever entropy is
// left in the resulting buffer bytes. A column file records one
// Algorithm byte per compressed buffer in its footer so a reader always
// knows which codec to invoke, without negotiation.
//
// # Supported algorithms
//
//   - AlgorithmNone: no compression, for buffers encoding already made dense
//   - AlgorithmZstd: best ratio, for cold-storage column files
//   - AlgorithmS2: balanced ratio and speed, for buffers read frequently
//   - AlgorithmLZ4: fastest decompression, for latency-sensitive reads
//
// All four implement the Codec interface and are safe for concurrent
// use. Zstd pools its encoders and decoders and LZ4 pools its
// compressors; S2 and None keep no pooled state.
package compress
