// Package strictwire compiles type descriptors into deterministic
// codec plans for a canonical binary encoding.
//
// The encoding is byte-exact and not self-describing: integers are
// little-endian, byte sequences and strings carry u16 length
// prefixes, union variants are tagged with fixed-width resolved tags,
// and optional values encode as a presence byte followed by the inner
// encoding. A well-formed value has exactly one encoding and every
// valid encoding decodes to exactly one value; the decoder rejects
// trailing bytes, non-canonical bools, and unknown tags. Framing is
// the caller's concern: the format is not self-terminating, so nested
// payloads are length-bounded and top-level buffers must hold exactly
// one value.
//
// Descriptors register with a Registry and compile once into
// immutable Plans. Registration and compilation are a single-threaded
// schema-build phase; a compiled Plan is safe for unlimited
// concurrent Encode and Decode calls. Every schema-level failure (tag
// conflicts, invalid directive combinations, unresolved references)
// surfaces at Add or Compile time, never during value processing.
//
// Structs may reserve a trailing extension region of tagged entries
// (package tlv): even entry tags are mandatory-to-understand, odd
// tags are carried verbatim through a capture field or dropped.
package strictwire
