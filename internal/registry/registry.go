package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	v1 "github.com/aevon-lab/tally/internal/api/v1"
	"github.com/aevon-lab/tally/internal/core/aggregation"
)

// ChangeType classifies a registry notification.
type ChangeType int

const (
	Added ChangeType = iota
	Updated
	Removed
)

func (c ChangeType) String() string {
	switch c {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	}
	return fmt.Sprintf("ChangeType(%d)", int(c))
}

// Change is delivered to watchers after a source was added, updated or removed.
// Previous is set for Updated and Removed.
type Change struct {
	Type     ChangeType
	Source   Source
	Previous *Source
}

// Registry holds the enabled sources and declared groups.
type Registry struct {
	mu       sync.RWMutex
	sources  map[string]Source
	groups   map[string]v1.GroupConfig
	members  map[string][]string // group id -> member source ids in insertion order
	watchers []func(Change)
}

// New builds a registry from a loaded file. Any invalid entry fails the load.
func New(f *File) (*Registry, error) {
	r := &Registry{
		sources: make(map[string]Source),
		groups:  make(map[string]v1.GroupConfig),
		members: make(map[string][]string),
	}
	if f == nil {
		return r, nil
	}

	for _, g := range f.Groups {
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownGroup, err)
		}
		if _, exists := r.groups[g.ID]; exists {
			return nil, fmt.Errorf("group %q: duplicate group id", g.ID)
		}
		r.groups[g.ID] = g
	}

	for _, cfg := range f.Sources {
		src, err := FromConfig(cfg)
		if err != nil {
			return nil, err
		}
		if _, exists := r.sources[src.ID]; exists {
			return nil, fmt.Errorf("%w: %q: duplicate source id", ErrInvalidSource, src.ID)
		}
		if !src.Enabled {
			continue
		}
		r.sources[src.ID] = src
		r.join(src)
	}

	for id := range r.members {
		if _, ok := r.groups[id]; !ok {
			slog.Error("[Registry] Sources reference an undeclared group; group sums will be skipped",
				"group_id", id, "members", r.members[id])
		}
	}
	return r, nil
}

// Watch registers fn to be called after every change. fn runs synchronously
// on the caller's goroutine, outside the registry lock.
func (r *Registry) Watch(fn func(Change)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers = append(r.watchers, fn)
}

// Put adds or replaces a source. A disabled source is removed.
func (r *Registry) Put(cfg v1.SourceConfig) (Change, error) {
	src, err := FromConfig(cfg)
	if err != nil {
		return Change{}, err
	}
	if !src.Enabled {
		return r.Remove(src.ID)
	}

	r.mu.Lock()
	change := Change{Type: Added, Source: src}
	if prev, ok := r.sources[src.ID]; ok {
		change.Type = Updated
		change.Previous = &prev
		r.leave(prev)
	}
	r.sources[src.ID] = src
	r.join(src)
	if src.Grouped() {
		if _, ok := r.groups[src.GroupID]; !ok {
			slog.Error("[Registry] Source references an undeclared group; group sums will be skipped",
				"source_id", src.ID, "group_id", src.GroupID)
		}
	}
	watchers := r.watchers
	r.mu.Unlock()

	notify(watchers, change)
	return change, nil
}

// Remove deletes a source. Removing an unknown source returns ErrNotFound.
func (r *Registry) Remove(id string) (Change, error) {
	r.mu.Lock()
	prev, ok := r.sources[id]
	if !ok {
		r.mu.Unlock()
		return Change{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(r.sources, id)
	r.leave(prev)
	watchers := r.watchers
	r.mu.Unlock()

	change := Change{Type: Removed, Source: prev, Previous: &prev}
	notify(watchers, change)
	return change, nil
}

func notify(watchers []func(Change), change Change) {
	for _, fn := range watchers {
		fn(change)
	}
}

// join and leave maintain group membership. Callers hold mu.
func (r *Registry) join(src Source) {
	if !src.Grouped() {
		return
	}
	for _, id := range r.members[src.GroupID] {
		if id == src.ID {
			return
		}
	}
	r.members[src.GroupID] = append(r.members[src.GroupID], src.ID)
}

func (r *Registry) leave(src Source) {
	if !src.Grouped() {
		return
	}
	list := r.members[src.GroupID]
	for i, id := range list {
		if id == src.ID {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.members, src.GroupID)
		return
	}
	r.members[src.GroupID] = list
}

// Get returns the source with the given id.
func (r *Registry) Get(id string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[id]
	return src, ok
}

// Sources returns every enabled source ordered by id.
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SourcesWith returns the sources that enable k, ordered by id.
func (r *Registry) SourcesWith(k aggregation.Kind) []Source {
	var out []Source
	for _, src := range r.Sources() {
		if src.Has(k) {
			out = append(out, src)
		}
	}
	return out
}

// Group returns a declared group with its current members.
func (r *Registry) Group(id string) (Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return Group{}, fmt.Errorf("%w: %q", ErrUnknownGroup, id)
	}
	return r.group(g), nil
}

// Groups returns the declared groups that have at least one member, ordered by id.
func (r *Registry) Groups() []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Group
	for id, g := range r.groups {
		if len(r.members[id]) == 0 {
			continue
		}
		out = append(out, r.group(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) group(g v1.GroupConfig) Group {
	members := append([]string(nil), r.members[g.ID]...)
	return Group{ID: g.ID, Price: g.Price, PriceUnit: g.PriceUnit, Members: members}
}
