// Package dispatch runs one action against one backend: validate the
// payload, build the adapter, invoke the operation and encode the result
// as JSON text.
//
// The dispatcher keeps no state between calls. Every call gets a request
// id that is attached to its log lines.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/koustreak/dbagent/internal/args"
	"github.com/koustreak/dbagent/internal/backend"
	"github.com/koustreak/dbagent/internal/database"
	"github.com/koustreak/dbagent/internal/errs"
	"github.com/koustreak/dbagent/internal/logger"
)

// resultOK is the encoded result of a successful update_metadata.
const resultOK = "ok"

// noBackend labels calls that failed before the connection type was known.
const noBackend = "none"

// Options configures a Dispatcher. The zero value logs nothing, records no
// metrics and runs execute_query verbatim.
type Options struct {
	Log     *logger.Logger
	Metrics *Metrics

	// ReadOnly restricts execute_query to a single read-only statement.
	ReadOnly bool
}

// Dispatcher routes actions to adapters.
type Dispatcher struct {
	factory  backend.Factory
	log      *logger.Logger
	metrics  *Metrics
	readOnly bool
	routes   map[args.Action]route
}

type route func(ctx context.Context, d *Dispatcher, a database.Adapter, in args.Args) (any, error)

// New returns a dispatcher that builds adapters with factory.
func New(factory backend.Factory, opts Options) *Dispatcher {
	return &Dispatcher{
		factory:  factory,
		log:      logger.OrNop(opts.Log),
		metrics:  opts.Metrics,
		readOnly: opts.ReadOnly,
		routes: map[args.Action]route{
			args.ListSchema:          listSchema,
			args.UpdateMetadata:      updateMetadata,
			args.ExecuteQuery:        executeQuery,
			args.GetOntology:         getOntology,
			args.ViewCurrentOntology: viewCurrentOntology,
		},
	}
}

// Run executes action with the raw JSON payload and returns the JSON text
// of its result. Errors are *errs.Error values.
func (d *Dispatcher) Run(ctx context.Context, action string, payload []byte) (string, error) {
	start := time.Now()
	backendName := noBackend
	log := d.log.With().
		Str("request_id", uuid.NewString()).
		Str("action", action).
		Logger()

	out, err := d.run(log.WithContext(ctx), args.Action(action), payload, &backendName)

	elapsed := time.Since(start)
	outcome := outcomeOK
	if err != nil {
		outcome = errs.KindOf(err).String()
	}
	actionLabel := unknownAction
	if _, ok := d.routes[args.Action(action)]; ok {
		actionLabel = action
	}
	d.metrics.observe(actionLabel, backendName, outcome, elapsed)

	fields := map[string]any{
		"backend":    backendName,
		"outcome":    outcome,
		"elapsed_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		log.ErrorWith("action failed", err, fields)
		return "", err
	}
	log.InfoWith("action completed", fields)
	return out, nil
}

func (d *Dispatcher) run(ctx context.Context, action args.Action, payload []byte, backendName *string) (string, error) {
	rt, ok := d.routes[action]
	if !ok {
		return "", errs.Newf(errs.ErrKindUnknownAction, "unknown action %q", action)
	}

	in, err := args.Validate(action, payload)
	if err != nil {
		return "", err
	}
	conn := in.Connection()
	*backendName = string(conn.Type)
	logger.FromContext(ctx).Debugf("connection %s", conn.Redacted())

	adapter, err := d.factory.Adapter(conn)
	if err != nil {
		return "", err
	}

	result, err := rt(ctx, d, adapter, in)
	if err != nil {
		return "", err
	}
	return encode(result)
}

func listSchema(ctx context.Context, _ *Dispatcher, a database.Adapter, in args.Args) (any, error) {
	s := in.(*args.SchemaArgs)
	return a.ListSchema(ctx, s.Database, s.Schema, s.Table)
}

func getOntology(ctx context.Context, _ *Dispatcher, a database.Adapter, in args.Args) (any, error) {
	s := in.(*args.SchemaArgs)
	return a.Ontology(ctx, s.Database, s.Schema)
}

func updateMetadata(ctx context.Context, _ *Dispatcher, a database.Adapter, in args.Args) (any, error) {
	if err := a.UpdateMetadata(ctx, in.(*args.MetadataArgs)); err != nil {
		return nil, err
	}
	return resultOK, nil
}

func executeQuery(ctx context.Context, d *Dispatcher, a database.Adapter, in args.Args) (any, error) {
	q := in.(*args.QueryArgs)
	if d.readOnly {
		if err := checkReadOnly(q.SQL); err != nil {
			return nil, err
		}
	}
	return a.RunQuery(ctx, q.SQL)
}

func viewCurrentOntology(ctx context.Context, _ *Dispatcher, a database.Adapter, _ args.Args) (any, error) {
	store, ok := a.(database.OntologyStore)
	if !ok {
		return nil, errs.New(errs.ErrKindUnsupported, "backend has no materialized ontology")
	}
	return store.CurrentOntology(ctx)
}
