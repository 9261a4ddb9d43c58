// Package store implements an on-disk, content-addressed cache of
// validated Meridian terms. Objects are keyed by the BLAKE3 digest of
// their canonical CBOR encoding and stored compressed under a sharded
// objects/ directory next to a versioned manifest. Every read is
// rebuilt through the validating constructors, so a store can hand
// out only well-scoped terms no matter what happened to the bytes.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/meridian-lang/meridian/internal/codec"
	"github.com/meridian-lang/meridian/internal/term"
)

const (
	manifestName = "manifest.json"
	objectsDir   = "objects"

	// FormatVersion is the store layout version written into new
	// manifests.
	FormatVersion = "1.0.0"

	// formatConstraint gates Open: any 1.x store is readable,
	// anything else is rejected.
	formatConstraint = "^1"
)

// Object header: 3 magic bytes, 1 compression tag byte, 4-byte
// big-endian uncompressed size, then the payload.
var objectMagic = [3]byte{'M', 'E', 'R'}

const objectHeaderSize = 8

// Manifest describes a store directory.
type Manifest struct {
	FormatVersion string    `json:"format_version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store is an open store directory. Methods are safe for concurrent
// use by multiple processes: writes take an advisory lock on the
// manifest.
type Store struct {
	root string
}

// Open opens the store rooted at dir, creating the directory and a
// fresh manifest if none exists. A manifest whose format version
// falls outside the supported range is rejected.
func Open(dir string) (*Store, error) {
	constraint, err := semver.NewConstraint(formatConstraint)
	if err != nil {
		return nil, fmt.Errorf("store: bad format constraint: %w", err)
	}

	s := &Store{root: dir}

	if err := os.MkdirAll(filepath.Join(dir, objectsDir), 0o755); err != nil {
		return nil, fmt.Errorf("store: create layout: %w", err)
	}

	manifest, err := s.readManifest()
	if errors.Is(err, os.ErrNotExist) {
		now := time.Now().UTC()

		return s, s.writeManifest(Manifest{
			FormatVersion: FormatVersion,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if err != nil {
		return nil, err
	}

	version, err := semver.NewVersion(manifest.FormatVersion)
	if err != nil {
		return nil, fmt.Errorf("store: bad manifest version %q: %w", manifest.FormatVersion, err)
	}

	if !constraint.Check(version) {
		return nil, fmt.Errorf("store: manifest version %s outside supported range %s",
			version, formatConstraint)
	}

	return s, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.root, manifestName)
}

func (s *Store) readManifest() (Manifest, error) {
	var m Manifest

	data, err := os.ReadFile(s.manifestPath())
	if err != nil {
		return m, err
	}

	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("store: parse manifest: %w", err)
	}

	return m, nil
}

func (s *Store) writeManifest(m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal manifest: %w", err)
	}

	if err := os.WriteFile(s.manifestPath(), data, 0o644); err != nil {
		return fmt.Errorf("store: write manifest: %w", err)
	}

	return nil
}

// objectPath shards objects by the first hex byte of their digest.
func (s *Store) objectPath(d codec.Digest) string {
	hexDigest := d.String()

	return filepath.Join(s.root, objectsDir, hexDigest[:2], hexDigest[2:])
}

// Put stores a term under its content digest, compressed with the
// requested algorithm, and returns the digest. Storing a term that is
// already present is a no-op.
func (s *Store) Put(e term.Expr[string], tag CompressionTag) (codec.Digest, error) {
	data, err := codec.EncodeTerm(e)
	if err != nil {
		return codec.Digest{}, err
	}

	digest := codec.HashTermBytes(data)

	path := s.objectPath(digest)
	if _, err := os.Stat(path); err == nil {
		return digest, nil
	}

	payload, actualTag, err := compress(data, tag)
	if err != nil {
		return codec.Digest{}, err
	}

	var buf bytes.Buffer
	buf.Write(objectMagic[:])
	buf.WriteByte(byte(actualTag))

	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(data)))
	buf.Write(size[:])
	buf.Write(payload)

	lock, err := acquireLock(s.manifestPath())
	if err != nil {
		return codec.Digest{}, err
	}
	defer lock.release()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return codec.Digest{}, fmt.Errorf("store: create shard: %w", err)
	}

	// Write-then-rename so readers never observe a torn object.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return codec.Digest{}, fmt.Errorf("store: create object: %w", err)
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return codec.Digest{}, fmt.Errorf("store: write object: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return codec.Digest{}, fmt.Errorf("store: close object: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return codec.Digest{}, fmt.Errorf("store: publish object: %w", err)
	}

	manifest, err := s.readManifest()
	if err != nil {
		return codec.Digest{}, err
	}

	manifest.UpdatedAt = time.Now().UTC()

	if err := s.writeManifest(manifest); err != nil {
		return codec.Digest{}, err
	}

	return digest, nil
}

// Get loads the term stored under digest. The object's bytes are
// re-hashed and the term rebuilt through the validating decode, so a
// corrupted object fails here rather than producing a malformed term.
func (s *Store) Get(d codec.Digest) (term.Expr[string], error) {
	data, err := s.readObject(d)
	if err != nil {
		return term.Expr[string]{}, err
	}

	return codec.DecodeTerm(data)
}

// readObject reads, decompresses, and digest-checks one object's
// canonical bytes.
func (s *Store) readObject(d codec.Digest) ([]byte, error) {
	raw, err := os.ReadFile(s.objectPath(d))
	if err != nil {
		return nil, fmt.Errorf("store: read object %s: %w", d, err)
	}

	if len(raw) < objectHeaderSize || !bytes.Equal(raw[:3], objectMagic[:]) {
		return nil, fmt.Errorf("store: object %s: bad header", d)
	}

	tag := CompressionTag(raw[3])
	size := int(binary.BigEndian.Uint32(raw[4:8]))

	data, err := decompress(raw[objectHeaderSize:], tag, size)
	if err != nil {
		return nil, fmt.Errorf("store: object %s: %w", d, err)
	}

	if codec.HashTermBytes(data) != d {
		return nil, fmt.Errorf("store: object %s: content digest mismatch", d)
	}

	return data, nil
}
