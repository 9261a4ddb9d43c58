package codec

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/meridian-lang/meridian/internal/term"
	"github.com/meridian-lang/meridian/internal/types"
)

// Digest is a 32-byte BLAKE3 digest over a value's canonical CBOR
// encoding. Because the encoding is deterministic, digest equality
// coincides with canonical-bytes equality.
type Digest [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation makes equal bytes hash differently as a term and as a
// type. The byte values are the ASCII domain name, zero-padded to 32
// bytes, which keeps the keys inspectable in hex dumps; BLAKE3 keyed
// mode treats the key as an opaque value either way. Fixed format
// constants: changing one invalidates every stored digest in that
// domain.
type domainKey [32]byte

var (
	termDomainKey = domainKey{
		'm', 'e', 'r', 'i', 'd', 'i', 'a', 'n', '.', 't', 'e', 'r', 'm',
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	typeDomainKey = domainKey{
		'm', 'e', 'r', 'i', 'd', 'i', 'a', 'n', '.', 't', 'y', 'p', 'e',
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

func keyedHash(key domainKey, data []byte) Digest {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("codec: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	hasher.Write(data)

	var d Digest
	copy(d[:], hasher.Sum(nil))

	return d
}

// TermDigest computes the term-domain digest of a term's canonical
// encoding.
func TermDigest(e term.Expr[string]) (Digest, error) {
	data, err := EncodeTerm(e)
	if err != nil {
		return Digest{}, err
	}

	return keyedHash(termDomainKey, data), nil
}

// TypeDigest computes the type-domain digest of a type's canonical
// encoding.
func TypeDigest(t types.Type[string]) (Digest, error) {
	data, err := EncodeType(t)
	if err != nil {
		return Digest{}, err
	}

	return keyedHash(typeDomainKey, data), nil
}

// HashTermBytes computes the term-domain digest of already-encoded
// canonical bytes.
func HashTermBytes(data []byte) Digest {
	return keyedHash(termDomainKey, data)
}

// String returns the digest in lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest parses a lowercase-hex digest string.
func ParseDigest(s string) (Digest, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("codec: parse digest: %w", err)
	}

	if len(raw) != len(Digest{}) {
		return Digest{}, fmt.Errorf("codec: parse digest: %d bytes, want %d", len(raw), len(Digest{}))
	}

	var d Digest
	copy(d[:], raw)

	return d, nil
}
