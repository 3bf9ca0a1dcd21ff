package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/gantry-sh/gantry/internal/graph"
	"github.com/gantry-sh/gantry/internal/provider"
	"github.com/gantry-sh/gantry/internal/state"
	"github.com/gantry-sh/gantry/internal/util/retry"
)

// Defaults for provider retry behavior.
const (
	DefaultWorkers      = 4
	DefaultMaxAttempts  = 4
	DefaultInitialDelay = 2 * time.Second
	DefaultMaxDelay     = 30 * time.Second
)

// Reconciler walks a resource graph and converges live state toward it.
// Graph and store are passed explicitly; the reconciler holds no global
// mutable state.
type Reconciler struct {
	provider provider.Provider
	store    state.Store
	project  string
	log      logr.Logger
	metrics  *Metrics

	workers      int
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration

	// sleep is replaceable in tests to skip real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error

	// stateMu guards node lifecycle state: workers write it while the
	// dispatcher scans it for readiness.
	stateMu sync.Mutex
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithWorkers bounds the number of nodes reconciled concurrently.
func WithWorkers(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger installs a structured logger.
func WithLogger(log logr.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

// WithMetrics installs reconciliation counters.
func WithMetrics(m *Metrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// WithRetry configures the per-node provider retry budget.
func WithRetry(maxAttempts int, initialDelay, maxDelay time.Duration) Option {
	return func(r *Reconciler) {
		r.maxAttempts = maxAttempts
		r.initialDelay = initialDelay
		r.maxDelay = maxDelay
	}
}

// WithSleep replaces the backoff wait, letting tests run without delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Reconciler) { r.sleep = fn }
}

// New creates a reconciler for one project.
func New(project string, p provider.Provider, s state.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		provider:     p,
		store:        s,
		project:      project,
		log:          logr.Discard(),
		workers:      DefaultWorkers,
		maxAttempts:  DefaultMaxAttempts,
		initialDelay: DefaultInitialDelay,
		maxDelay:     DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply reconciles every node in dependency order and reports each node's
// final state. The returned error is non-nil only when the run aborted as
// a whole (state store failure); per-node failures live in the report.
func (r *Reconciler) Apply(ctx context.Context, g *graph.Graph) (*Report, error) {
	journal := NewJournal()

	records, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	outputs := newOutputSet()
	for name, rec := range records {
		if rec.State == graph.StateApplied {
			outputs.set(name, rec.Outputs)
		}
	}

	fatal := r.runPool(ctx, g,
		func(n *graph.Node) []string { return n.Dependencies() },
		func(ctx context.Context, n *graph.Node) error {
			return r.applyNode(ctx, n, g, outputs, journal)
		})

	return newReport(g, journal), fatal
}

// Destroy tears nodes down in reverse dependency order. A node is removed
// only after every node depending on it is Deleted or was never applied.
func (r *Reconciler) Destroy(ctx context.Context, g *graph.Graph) (*Report, error) {
	journal := NewJournal()

	records, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	outputs := newOutputSet()
	for name, rec := range records {
		if len(rec.Outputs) > 0 {
			outputs.set(name, rec.Outputs)
		}
	}

	// Nodes with no record were never applied; nothing to tear down.
	for _, n := range g.Nodes {
		if _, ok := records[n.Name]; !ok {
			r.transition(n, journal, graph.StateDeleted, nil)
		}
	}

	fatal := r.runPool(ctx, g,
		func(n *graph.Node) []string { return g.Dependents(n.Name) },
		func(ctx context.Context, n *graph.Node) error {
			return r.destroyNode(ctx, n, g, outputs, journal)
		})

	return newReport(g, journal), fatal
}

// runPool drives a bounded worker pool over the graph. A node is
// dispatched once all of its blockers are in a terminal state; nodes on
// independent branches run concurrently. Cancellation stops dispatching
// but lets in-flight work finish and record its outcome. A fatal worker
// error (state store failure) also stops dispatch.
func (r *Reconciler) runPool(
	ctx context.Context,
	g *graph.Graph,
	blockers func(n *graph.Node) []string,
	work func(ctx context.Context, n *graph.Node) error,
) error {
	pending := make(map[string]*graph.Node)
	for name, n := range g.Nodes {
		if !n.State.Terminal() {
			pending[name] = n
		}
	}

	results := make(chan error)
	inFlight := 0
	var fatal error

	ready := func() []string {
		var names []string
	nodes:
		for name, n := range pending {
			for _, b := range blockers(n) {
				if !r.nodeState(g.Nodes[b]).Terminal() {
					continue nodes
				}
			}
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}

	for len(pending) > 0 || inFlight > 0 {
		if fatal == nil && ctx.Err() == nil {
			for _, name := range ready() {
				if inFlight >= r.workers {
					break
				}
				n := pending[name]
				delete(pending, name)
				inFlight++
				go func() {
					results <- work(ctx, n)
				}()
			}
		}

		if inFlight == 0 {
			// Nothing running and nothing dispatchable: either the run
			// was aborted or the remaining nodes are blocked forever.
			break
		}

		if err := <-results; err != nil && fatal == nil {
			fatal = err
		}
		inFlight--
	}

	return fatal
}

// applyNode reconciles a single node. Per-node failures are recorded on
// the node and return nil; only state store errors propagate and abort
// the run.
func (r *Reconciler) applyNode(
	ctx context.Context,
	n *graph.Node,
	g *graph.Graph,
	outputs *outputSet,
	journal *Journal,
) error {
	log := r.log.WithValues("node", n.Name, "kind", n.Kind)

	for _, dep := range n.Dependencies() {
		if r.nodeState(g.Nodes[dep]) != graph.StateApplied {
			err := &DependencyUnsatisfiedError{Node: n.Name, Dependency: dep}
			r.failNode(n, journal, err)
			log.Info("skipped, dependency not applied", "dependency", dep)
			return nil
		}
	}

	resolved, err := resolveConfig(n, outputs)
	if err != nil {
		r.failNode(n, journal, err)
		log.Error(err, "failed to resolve configuration")
		return nil
	}

	hash := state.HashConfig(resolved)
	req := provider.Request{Project: r.project, Name: n.Name, Kind: n.Kind, Config: resolved}

	rec, found, err := r.store.Get(ctx, n.Name)
	if err != nil {
		r.failNode(n, journal, err)
		return err
	}

	// Unchanged and healthy: skip the provider call entirely.
	if found && rec.State == graph.StateApplied && rec.ConfigHash == hash {
		healthy, herr := r.provider.Health(ctx, req)
		if herr == nil && healthy {
			outputs.set(n.Name, rec.Outputs)
			r.transition(n, journal, graph.StateApplied, nil)
			log.V(1).Info("unchanged, skipping")
			return nil
		}
	}

	r.transition(n, journal, graph.StateApplying, nil)
	log.Info("applying")

	var out provider.Outputs
	err = retry.Do(ctx, func() error {
		r.metrics.ensure(n.Kind)
		o, eerr := r.provider.Ensure(ctx, req)
		if eerr != nil {
			if provider.IsTransient(eerr) {
				return eerr
			}
			return retry.Fatal(eerr)
		}
		out = o
		return nil
	}, r.retryOptions(n, journal, log)...)

	if err != nil {
		r.metrics.failure(n.Kind)
		// Persist the outcome even when the run is being cancelled.
		saveErr := r.store.Save(context.WithoutCancel(ctx), state.Record{
			Name:       n.Name,
			Kind:       n.Kind,
			State:      graph.StateFailed,
			ConfigHash: hash,
			LastError:  err.Error(),
			UpdatedAt:  time.Now().UTC(),
		})
		r.failNode(n, journal, err)
		log.Error(err, "apply failed")
		return saveErr
	}

	if err := r.store.Save(context.WithoutCancel(ctx), state.Record{
		Name:       n.Name,
		Kind:       n.Kind,
		State:      graph.StateApplied,
		ConfigHash: hash,
		Outputs:    out,
		UpdatedAt:  time.Now().UTC(),
	}); err != nil {
		r.failNode(n, journal, err)
		return err
	}

	outputs.set(n.Name, out)
	r.transition(n, journal, graph.StateApplied, nil)
	log.Info("applied")
	return nil
}

// destroyNode tears down a single node, gated on its dependents.
func (r *Reconciler) destroyNode(
	ctx context.Context,
	n *graph.Node,
	g *graph.Graph,
	outputs *outputSet,
	journal *Journal,
) error {
	log := r.log.WithValues("node", n.Name, "kind", n.Kind)

	for _, dependent := range g.Dependents(n.Name) {
		if r.nodeState(g.Nodes[dependent]) != graph.StateDeleted {
			err := &DependencyUnsatisfiedError{Node: n.Name, Dependency: dependent}
			r.failNode(n, journal, err)
			log.Info("skipped, dependent not deleted", "dependent", dependent)
			return nil
		}
	}

	cfg, _ := resolveConfigLenient(n, outputs)
	req := provider.Request{Project: r.project, Name: n.Name, Kind: n.Kind, Config: cfg}

	r.transition(n, journal, graph.StateDeleting, nil)
	log.Info("deleting")

	err := retry.Do(ctx, func() error {
		r.metrics.tearDown(n.Kind)
		terr := r.provider.TearDown(ctx, req)
		if terr != nil {
			if provider.IsTransient(terr) {
				return terr
			}
			return retry.Fatal(terr)
		}
		return nil
	}, r.retryOptions(n, journal, log)...)

	if err != nil {
		r.metrics.failure(n.Kind)
		r.failNode(n, journal, err)
		log.Error(err, "teardown failed")
		return nil
	}

	if err := r.store.Delete(context.WithoutCancel(ctx), n.Name); err != nil {
		r.failNode(n, journal, err)
		return err
	}

	r.transition(n, journal, graph.StateDeleted, nil)
	log.Info("deleted")
	return nil
}

// transition moves a node to a new lifecycle state under the state lock
// and journals the change. Workers and the dispatcher touch node state
// only through this and nodeState.
func (r *Reconciler) transition(n *graph.Node, journal *Journal, to graph.State, err error) {
	r.stateMu.Lock()
	from := n.State
	n.State = to
	n.Err = err
	r.stateMu.Unlock()
	journal.Transition(n.Name, from, to, err)
}

func (r *Reconciler) nodeState(n *graph.Node) graph.State {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return n.State
}

func (r *Reconciler) failNode(n *graph.Node, journal *Journal, err error) {
	r.transition(n, journal, graph.StateFailed, err)
}

func (r *Reconciler) retryOptions(n *graph.Node, journal *Journal, log logr.Logger) []retry.Option {
	opts := []retry.Option{
		retry.WithMaxAttempts(r.maxAttempts),
		retry.WithInitialDelay(r.initialDelay),
		retry.WithMaxDelay(r.maxDelay),
		retry.WithOnRetry(func(attempt int, delay time.Duration, err error) {
			r.metrics.retry(n.Kind)
			journal.Retry(n.Name, attempt, delay, err)
			log.Info("retrying after transient error", "attempt", attempt, "delay", delay, "error", err.Error())
		}),
	}
	if r.sleep != nil {
		opts = append(opts, retry.WithSleep(r.sleep))
	}
	return opts
}
