package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/tally/internal/core/storage"
	"github.com/aevon-lab/tally/internal/queue"
	"github.com/aevon-lab/tally/internal/registry"
	"github.com/benbjohnson/clock"
)

// Options tunes an Engine. Zero values fall back to the defaults.
type Options struct {
	// Location is the wall-clock zone period boundaries are computed in. Default UTC.
	Location *time.Location

	// AvgPrecision is the number of decimal places dayAvg is rounded to. Default 0.
	AvgPrecision int32

	// Clock supplies "now" for timer-driven work and events without a timestamp.
	Clock clock.Clock

	Metrics *Metrics
}

// Engine owns the accumulator state of every registered source. All reads and
// writes of that state run as tasks on a single queue.
type Engine struct {
	store        storage.Store
	registry     *registry.Registry
	queue        *queue.Queue
	clock        clock.Clock
	loc          *time.Location
	avgPrecision int32
	metrics      *Metrics
	dispatch     map[Kind]update
}

// NewEngine wires an engine to its collaborators and subscribes to registry changes.
func NewEngine(store storage.Store, reg *registry.Registry, q *queue.Queue, opts Options) *Engine {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	e := &Engine{
		store:        store,
		registry:     reg,
		queue:        q,
		clock:        opts.Clock,
		loc:          opts.Location,
		avgPrecision: opts.AvgPrecision,
		metrics:      opts.Metrics,
	}
	e.dispatch = e.updateTable()
	reg.Watch(e.onRegistryChange)
	return e
}

// Location is the zone period boundaries are computed in.
func (e *Engine) Location() *time.Location { return e.loc }

// Queue is the sequencer the engine runs its tasks on.
func (e *Engine) Queue() *queue.Queue { return e.queue }

func (e *Engine) now() time.Time {
	return e.clock.Now().In(e.loc)
}

// Bootstrap creates the missing slots of every registered source and group.
func (e *Engine) Bootstrap() {
	sources := e.registry.Sources()
	for _, src := range sources {
		e.enqueueEnsure(src)
	}
	slog.Info("[Engine] Bootstrapped",
		"sources", len(sources),
		"groups", len(e.registry.Groups()),
		"timezone", e.loc.String(),
	)
}

// Drain waits up to timeout for every queued task to finish. Call it before
// closing the store so queued event tasks do not run against a closed store.
func (e *Engine) Drain(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	slog.Info("[Engine] Draining task queue", "pending", e.queue.Len())
	if err := e.queue.Wait(ctx); err != nil {
		return fmt.Errorf("drain queue (%d pending): %w", e.queue.Len(), err)
	}
	slog.Info("[Engine] Task queue drained")
	return nil
}

func (e *Engine) enqueue(name string, fn queue.TaskFunc) {
	e.queue.Enqueue(name, fn)
}

// States lists the stored slots of one source, or of one group, in ns.
func (e *Engine) States(ctx context.Context, ns Namespace, owner string) ([]storage.State, error) {
	var out []storage.State
	for _, k := range allKinds() {
		states, err := e.list(ctx, ns, k, owner)
		if err != nil {
			return nil, err
		}
		out = append(out, states...)
	}
	return out, nil
}
