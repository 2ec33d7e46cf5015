// Package catalog loads per-dialect SQL template catalogs and renders their
// queries.
//
// A Store is created once per process. Catalogs are read from the Source on
// first use and cached by dialect for the life of the process; the cache is
// never evicted because the dialect set is small and fixed at deployment.
// Concurrent first loads of one dialect share a single read.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/koustreak/dbagent/internal/errs"
	"github.com/koustreak/dbagent/internal/logger"
	"golang.org/x/sync/singleflight"
)

// loadTimeout bounds one catalog read.
const loadTimeout = 30 * time.Second

// Store is a read-through cache of catalogs. It is safe for concurrent use.
type Store struct {
	src Source
	log *logger.Logger

	mu       sync.RWMutex
	catalogs map[string]*Catalog
	loads    singleflight.Group
}

func NewStore(src Source, log *logger.Logger) *Store {
	return &Store{
		src:      src,
		log:      logger.OrNop(log),
		catalogs: make(map[string]*Catalog),
	}
}

// Catalog returns the cached catalog for dialect, loading it on first use.
// Failed loads are not cached.
func (s *Store) Catalog(ctx context.Context, dialect string) (*Catalog, error) {
	s.mu.RLock()
	c, ok := s.catalogs[dialect]
	s.mu.RUnlock()
	if ok {
		return c, nil
	}

	ch := s.loads.DoChan(dialect, func() (any, error) {
		s.mu.RLock()
		c, ok := s.catalogs[dialect]
		s.mu.RUnlock()
		if ok {
			return c, nil
		}

		// Shared by every waiter, so it must outlive the first caller.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		data, format, err := s.src.ReadCatalog(loadCtx, dialect)
		if err != nil {
			return nil, err
		}
		c, err = Decode(dialect, data, format)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.catalogs[dialect] = c
		s.mu.Unlock()

		s.log.With().
			Str("dialect", dialect).
			Str("format", format.String()).
			Int("queries", len(c.entries)).
			Logger().
			Debug("query catalog loaded")
		return c, nil
	})

	select {
	case <-ctx.Done():
		return nil, errs.Wrap(errs.ErrKindTimeout, "loading query catalog for "+dialect, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Catalog), nil
	}
}

// Query renders the named query of dialect with params.
func (s *Store) Query(ctx context.Context, dialect, name string, params Params) (string, error) {
	t, err := s.Template(ctx, dialect, name)
	if err != nil {
		return "", err
	}
	return t.Render(params)
}

// Template returns the parsed template of name in dialect's catalog.
func (s *Store) Template(ctx context.Context, dialect, name string) (*Template, error) {
	c, err := s.Catalog(ctx, dialect)
	if err != nil {
		return nil, err
	}
	return c.Template(name)
}

// Has reports whether dialect's catalog defines name.
func (s *Store) Has(ctx context.Context, dialect, name string) (bool, error) {
	c, err := s.Catalog(ctx, dialect)
	if err != nil {
		return false, err
	}
	return c.Has(name), nil
}

// Names lists the queries defined for dialect.
func (s *Store) Names(ctx context.Context, dialect string) ([]string, error) {
	c, err := s.Catalog(ctx, dialect)
	if err != nil {
		return nil, err
	}
	return c.Names(), nil
}
