package sources

import (
	"context"
	"errors"
	"fmt"

	v1 "github.com/aevon-lab/tally/internal/api/v1"
	core "github.com/aevon-lab/tally/internal/core/aggregation"
	"github.com/aevon-lab/tally/internal/core/storage"
	"github.com/aevon-lab/tally/internal/registry"
)

// ErrInvalidNamespace marks a states request for a namespace other than live or saved.
var ErrInvalidNamespace = errors.New("invalid namespace")

// StateReader lists the stored slots of one owner.
type StateReader interface {
	States(ctx context.Context, ns core.Namespace, owner string) ([]storage.State, error)
}

// Service exposes the source registry and the per-source slot view.
type Service struct {
	registry *registry.Registry
	states   StateReader
}

// NewService creates a new sources service.
func NewService(reg *registry.Registry, states StateReader) *Service {
	if reg == nil {
		panic("sources: registry must not be nil")
	}
	if states == nil {
		panic("sources: state reader must not be nil")
	}
	return &Service{registry: reg, states: states}
}

// Put adds or replaces a source. The id in the path wins over the body.
func (s *Service) Put(id string, cfg v1.SourceConfig) (ChangeResponse, error) {
	cfg.ID = id
	change, err := s.registry.Put(cfg)
	if err != nil {
		return ChangeResponse{}, err
	}
	return ChangeResponse{Change: change.Type.String(), Source: change.Source.Config()}, nil
}

// List returns every enabled source in wire form.
func (s *Service) List() []v1.SourceConfig {
	srcs := s.registry.Sources()
	out := make([]v1.SourceConfig, 0, len(srcs))
	for _, src := range srcs {
		out = append(out, src.Config())
	}
	return out
}

// Groups returns the declared groups that currently have members.
func (s *Service) Groups() []GroupResponse {
	groups := s.registry.Groups()
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupResponse{ID: g.ID, Price: g.Price, PriceUnit: g.PriceUnit, Members: g.Members})
	}
	return out
}

// SourceStates reads the slots of a registered source. unit is the source's
// physical unit, reported on the slots that carry it.
func (s *Service) SourceStates(ctx context.Context, id, namespace string) (StatesResponse, error) {
	src, ok := s.registry.Get(id)
	if !ok {
		return StatesResponse{}, fmt.Errorf("%w: %q", registry.ErrNotFound, id)
	}
	return s.read(ctx, id, namespace, src.Unit)
}

// GroupStates reads the sumGroup slots of a declared group, in its price unit.
func (s *Service) GroupStates(ctx context.Context, id, namespace string) (StatesResponse, error) {
	g, err := s.registry.Group(id)
	if err != nil {
		return StatesResponse{}, err
	}
	return s.read(ctx, id, namespace, g.PriceUnit)
}

func (s *Service) read(ctx context.Context, owner, namespace, unit string) (StatesResponse, error) {
	ns, err := parseNamespace(namespace)
	if err != nil {
		return StatesResponse{}, err
	}
	states, err := s.states.States(ctx, ns, owner)
	if err != nil {
		return StatesResponse{}, fmt.Errorf("read states of %q: %w", owner, err)
	}

	resp := StatesResponse{Owner: owner, Namespace: string(ns), States: make([]StateValue, 0, len(states))}
	for _, st := range states {
		v := StateValue{Key: st.Key, Value: st.Value, TS: st.TS}
		if sk, err := core.ParseKey(st.Key); err == nil {
			v.Kind, v.Metric = sk.Kind.String(), sk.Metric
			if d, err := core.Lookup(sk.Namespace, sk.Kind, sk.Metric); err == nil {
				v.Role = d.Role
				if d.Unit || sk.Kind == core.KindSumGroup {
					v.Unit = unit
				}
			}
		}
		resp.States = append(resp.States, v)
	}
	return resp, nil
}

// parseNamespace defaults to the saved snapshots.
func parseNamespace(s string) (core.Namespace, error) {
	switch core.Namespace(s) {
	case "", core.Saved:
		return core.Saved, nil
	case core.Live:
		return core.Live, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidNamespace, s)
}
