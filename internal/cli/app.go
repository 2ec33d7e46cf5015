package cli

import (
	"context"
	"io"
	"os"

	"github.com/koustreak/dbagent/internal/backend"
	"github.com/koustreak/dbagent/internal/catalog"
	"github.com/koustreak/dbagent/internal/config"
	"github.com/koustreak/dbagent/internal/dispatch"
	"github.com/koustreak/dbagent/internal/filestore/minio"
	"github.com/koustreak/dbagent/internal/logger"
	"github.com/koustreak/dbagent/queries"
	"github.com/prometheus/client_golang/prometheus"
)

// app holds everything a command needs, built from the loaded config.
type app struct {
	log     *logger.Logger
	queries *catalog.Store
	close   func() error
}

func newApp(ctx context.Context, cfg *config.Config, stderr io.Writer) (*app, error) {
	lc := cfg.Logger()
	lc.Output = stderr
	log := logger.New(lc)

	src, closeSrc, err := catalogSource(ctx, &cfg.Catalog)
	if err != nil {
		return nil, err
	}
	return &app{
		log:     log,
		queries: catalog.NewStore(src, log),
		close:   closeSrc,
	}, nil
}

// catalogSource picks the template source: a directory, a bucket, or the
// catalogs compiled into the binary.
func catalogSource(ctx context.Context, cfg *config.CatalogConfig) (catalog.Source, func() error, error) {
	noop := func() error { return nil }
	switch {
	case cfg.Dir != "":
		return catalog.NewDirSource(os.DirFS(cfg.Dir)), noop, nil
	case cfg.Bucket != "":
		store, err := minio.New(ctx, cfg.FileStore())
		if err != nil {
			return nil, nil, err
		}
		return catalog.NewObjectSource(store, cfg.Bucket, cfg.Prefix), store.Close, nil
	default:
		return catalog.NewDirSource(queries.FS), noop, nil
	}
}

func (a *app) dispatcher(readOnly bool, reg prometheus.Registerer) *dispatch.Dispatcher {
	registry := backend.NewRegistry(backend.Deps{Queries: a.queries, Log: a.log})
	return dispatch.New(registry, dispatch.Options{
		Log:      a.log,
		Metrics:  dispatch.NewMetrics(reg),
		ReadOnly: readOnly,
	})
}
