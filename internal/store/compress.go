package store

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the algorithm an object's payload is
// compressed with. The tag is stored in the object header (1 byte);
// these values are format constants.
type CompressionTag uint8

const (
	// CompressionNone stores the canonical bytes as-is. Also the
	// fallback when a payload turns out incompressible.
	CompressionNone CompressionTag = 0
	// CompressionLZ4 stores LZ4 block-compressed payloads. Fast
	// default.
	CompressionLZ4 CompressionTag = 1
	// CompressionZstd stores zstd-compressed payloads. Better
	// ratios for large terms at higher CPU cost.
	CompressionZstd CompressionTag = 2
)

// String returns the tag's surface spelling.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseCompressionTag parses a tag from its surface spelling.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("store: unknown compression tag %q", name)
	}
}

// Shared zstd coder pair. Both are concurrency-safe via EncodeAll and
// DecodeAll; allocating them once avoids per-object window setup.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// compress compresses data with the requested algorithm and returns
// the payload together with the tag actually used: an incompressible
// payload falls back to CompressionNone rather than growing.
func compress(data []byte, tag CompressionTag) ([]byte, CompressionTag, error) {
	switch tag {
	case CompressionNone:
		return data, CompressionNone, nil

	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		dst := make([]byte, bound)

		written, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("store: lz4 compress: %w", err)
		}

		// CompressBlock reports 0 for incompressible input.
		if written == 0 || written >= len(data) {
			return data, CompressionNone, nil
		}

		return dst[:written], CompressionLZ4, nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return data, CompressionNone, nil
		}

		return compressed, CompressionZstd, nil

	default:
		return nil, 0, fmt.Errorf("store: unsupported compression tag %d", tag)
	}
}

// decompress reverses compress. uncompressedSize must match the
// original payload length exactly.
func decompress(payload []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(payload) != uncompressedSize {
			return nil, fmt.Errorf("store: uncompressed payload is %d bytes, want %d",
				len(payload), uncompressedSize)
		}

		return payload, nil

	case CompressionLZ4:
		dst := make([]byte, uncompressedSize)

		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return nil, fmt.Errorf("store: lz4 decompress: %w", err)
		}

		if n != uncompressedSize {
			return nil, fmt.Errorf("store: lz4 payload is %d bytes, want %d", n, uncompressedSize)
		}

		return dst, nil

	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("store: zstd decompress: %w", err)
		}

		if len(out) != uncompressedSize {
			return nil, fmt.Errorf("store: zstd payload is %d bytes, want %d", len(out), uncompressedSize)
		}

		return out, nil

	default:
		return nil, fmt.Errorf("store: unsupported compression tag %d", tag)
	}
}
