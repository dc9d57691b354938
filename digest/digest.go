// Package digest derives stable identifiers from canonical
// encodings. Because every value has exactly one encoding, equal
// values of a type always share a digest and unequal values never do
// short of a BLAKE3 collision.
package digest

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/danmuck/strictwire"
)

// Hash is a 32-byte BLAKE3 digest over a type name and a canonical
// encoding.
type Hash [32]byte

// valueDomainKey separates value digests from every other BLAKE3 use:
// the ASCII domain name zero-padded to 32 bytes. Changing it
// invalidates all existing digests.
var valueDomainKey = [32]byte{
	's', 't', 'r', 'i', 'c', 't', 'w', 'i', 'r', 'e', '.', 'v', 'a', 'l', 'u', 'e',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Sum encodes v with the plan and digests the result under the plan's
// type name.
func Sum(p *strictwire.Plan, v strictwire.Value) (Hash, error) {
	data, err := p.Encode(v)
	if err != nil {
		return Hash{}, err
	}
	return SumEncoded(p.Name(), data), nil
}

// SumEncoded digests an already-encoded value. The type name is
// length-prefixed into the hash input, so distinct name and encoding
// pairs can never collide by concatenation.
func SumEncoded(typeName string, encoding []byte) Hash {
	if len(typeName) > int(^uint16(0)) {
		panic("digest: type name exceeds 65535 bytes")
	}
	hasher, err := blake3.NewKeyed(valueDomainKey[:])
	if err != nil {
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	var prefix [2]byte
	binary.LittleEndian.PutUint16(prefix[:], uint16(len(typeName)))
	hasher.Write(prefix[:])
	hasher.Write([]byte(typeName))
	hasher.Write(encoding)
	var h Hash
	copy(h[:], hasher.Sum(nil))
	return h
}

// Format returns the canonical lowercase hex form of a digest.
func Format(h Hash) string {
	return hex.EncodeToString(h[:])
}

// Parse reads the 64-character hex form back into a Hash.
func Parse(s string) (Hash, error) {
	var h Hash
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != 32 {
		return h, fmt.Errorf("digest is %d bytes, want 32", len(decoded))
	}
	copy(h[:], decoded)
	return h, nil
}
