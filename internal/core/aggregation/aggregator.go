package aggregation

import (
	"fmt"
	"sort"
)

// Kind is one of the closed set of accumulator kinds a source can enable.
type Kind int

const (
	KindCount Kind = iota
	KindSumCount
	KindSumDelta
	KindSumGroup
	KindMinMax
	KindAvg
	KindFiveMin
	KindTimeCount
)

// Kinds is the registry of all supported accumulator kinds, keyed by their
// configuration name. Lookups go through this map; there is no switch on names.
var Kinds = map[string]Kind{
	"count":     KindCount,
	"sumCount":  KindSumCount,
	"sumDelta":  KindSumDelta,
	"sumGroup":  KindSumGroup,
	"minmax":    KindMinMax,
	"avg":       KindAvg,
	"fiveMin":   KindFiveMin,
	"timeCount": KindTimeCount,
}

var kindNames = func() map[Kind]string {
	m := make(map[Kind]string, len(Kinds))
	for name, k := range Kinds {
		m[k] = name
	}
	return m
}()

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is a registered kind.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind resolves a configuration name to a Kind.
func ParseKind(name string) (Kind, error) {
	k, ok := Kinds[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return k, nil
}

// ValidKind reports whether name is a registered kind name.
func ValidKind(name string) bool {
	_, ok := Kinds[name]
	return ok
}

// KindSet is the set of kinds enabled for one source.
type KindSet map[Kind]struct{}

// NewKindSet builds a set from the given kinds.
func NewKindSet(kinds ...Kind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether k is enabled.
func (s KindSet) Has(k Kind) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the kinds in declaration order.
func (s KindSet) Sorted() []Kind {
	out := make([]Kind, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Names returns the configuration names of the enabled kinds in declaration order.
func (s KindSet) Names() []string {
	kinds := s.Sorted()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}
