package vfs

import (
	"context"
	"fmt"
	"sync"

	"github.com/arloliu/arraymeta/errs"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentReads bounds how many fragment files a single session open
// or consolidation will read at once, so a metadata directory with many
// small fragments doesn't open unbounded concurrent connections against an
// object-store backend.
const maxConcurrentReads = 16

// ReadAll reads every file named in names from dir concurrently, bounded by
// maxConcurrentReads, and returns their contents keyed by name. Fragments
// are independent reads, so fetching them in parallel shortens open() for
// arrays accumulating many small fragments between consolidations.
func ReadAll(ctx context.Context, v VFS, dir string, names []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(names))
	if len(names) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for _, name := range names {
		name := name
		g.Go(func() error {
			data, err := v.ReadFile(gctx, dir+"/"+name)
			if err != nil {
				return fmt.Errorf("%w: reading fragment %q: %v", errs.ErrIoFailure, name, err)
			}

			mu.Lock()
			out[name] = data
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
