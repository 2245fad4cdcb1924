// Package serde persists array.Array trees to and from bytes.
//
// A strata file is a sequence of length-prefixed messages: one schema
// message naming the file's top-level DType, followed by zero or more batch
// messages, followed by a footer message and a fixed 20-byte trailer. A
// batch message's body is a flatbuffer-encoded encoding tree (built with a
// raw flatbuffers.Builder; this module never runs the flatbuffers schema
// compiler, so there is no generated accessor code) followed by a 64-byte
// aligned, zero-padded buffer heap. The footer records, per top-level
// column, the byte range and row range of each of its batches so a reader
// can binary-search straight to the batch covering an arbitrary row range
// without scanning the whole file.
//
// serde never chooses or applies an array encoding itself; it arranges
// already-built array.Array trees (as produced by package sampling, or by
// a caller constructing canonical arrays directly) into this wire format,
// passing each raw buffer through the byte-level codec (package compress)
// the caller selects, and reverses the process on read.
package serde
