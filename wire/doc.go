// Package wire owns the canonical byte-level primitives.
//
// Ownership boundary:
// - little-endian fixed-width integer put/read
// - length-prefixed byte sequences and utf-8 strings
// - canonical bool bytes
// - truncation and length sentinels
package wire
