// Package codec defines the canonical wire form of Meridian terms and
// types: deterministic CBOR for storage and hashing, a JSONC fixture
// form for human-authored terms, and BLAKE3 content digests over the
// canonical bytes. Decoding always rebuilds bottom-up through the
// validating constructors, so no malformed expression can enter the
// process from bytes.
package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical term always
// produces identical bytes, which is what makes digests meaningful.
var encMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR.
// Unknown fields are ignored for forward compatibility.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}
