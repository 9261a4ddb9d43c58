package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-lang/meridian/internal/codec"
	"github.com/meridian-lang/meridian/internal/term"
)

// Scan sweeps every object in the store concurrently: each one is
// read, decompressed, digest-checked against its path, decoded
// through the validating constructors, and verified. It returns the
// number of objects checked; the first failure cancels the sweep.
func (s *Store) Scan(ctx context.Context) (int, error) {
	digests, err := s.list()
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, d := range digests {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := s.readObject(d)
			if err != nil {
				return err
			}

			e, err := codec.DecodeTerm(data)
			if err != nil {
				return fmt.Errorf("store: object %s: %w", d, err)
			}

			if err := term.Verify(e); err != nil {
				return fmt.Errorf("store: object %s: %w", d, err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	return len(digests), nil
}

// list walks the objects directory and reassembles each sharded path
// into a digest.
func (s *Store) list() ([]codec.Digest, error) {
	var digests []codec.Digest

	root := filepath.Join(s.root, objectsDir)

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") {
			return nil
		}

		shard := filepath.Base(filepath.Dir(path))

		digest, err := codec.ParseDigest(shard + name)
		if err != nil {
			return fmt.Errorf("store: stray object file %s: %w", path, err)
		}

		digests = append(digests, digest)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list objects: %w", err)
	}

	return digests, nil
}
