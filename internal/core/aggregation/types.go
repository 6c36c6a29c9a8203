package aggregation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownKind   = errors.New("unknown aggregate kind")
	ErrUnknownPeriod = errors.New("unknown period")
	ErrUnknownMetric = errors.New("unknown metric")
	ErrInvalidKey    = errors.New("invalid slot key")
)

// Namespace separates the continuously mutated live slots from the
// once-per-period saved snapshots.
type Namespace string

const (
	Live  Namespace = "live"
	Saved Namespace = "saved"
)

// ValueType is the type a metric's slot holds.
type ValueType string

const (
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeMixed   ValueType = "mixed" // raw observed level, whatever the source sends
)

// Role labels what a slot represents for consumers.
const (
	RoleValue    = "value"
	RoleMin      = "value.min"
	RoleMax      = "value.max"
	RoleSum      = "value.sum"
	RoleInterval = "value.interval"
	RoleDate     = "date"
	RoleState    = "state"
)

// Descriptor declares one metric of one kind.
type Descriptor struct {
	Name  string
	Type  ValueType
	Unit  bool // carries the source's physical unit
	Role  string
	Saved bool // also exists in the saved namespace
}

// BucketMetric is the metric name of a plain period bucket ("15Min", "day", ...).
func BucketMetric(p Period) string { return p.String() }

// MinMetric is the running-minimum metric for p ("dayMin", "weekMin", ...).
func MinMetric(p Period) string { return p.String() + "Min" }

// MaxMetric is the running-maximum metric for p.
func MaxMetric(p Period) string { return p.String() + "Max" }

// OnMetric is the on-duration metric for p ("on15Min", "onDay", ...).
func OnMetric(p Period) string { return "on" + upperFirst(p.String()) }

// OffMetric is the off-duration metric for p.
func OffMetric(p Period) string { return "off" + upperFirst(p.String()) }

func upperFirst(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Fixed metric names shared across kinds.
const (
	MetricLast       = "last"
	MetricLastPulse  = "lastPulse"
	MetricDelta      = "delta"
	MetricLast01     = "last01"
	MetricLast10     = "last10"
	MetricAbsMin     = "absMin"
	MetricAbsMax     = "absMax"
	MetricDayCount   = "dayCount"
	MetricDaySum     = "daySum"
	MetricDayAvg     = "dayAvg"
	MetricDayMin     = "dayMin"
	MetricDayMax     = "dayMax"
	MetricStart5Min  = "start5Min"
	MetricMean5Min   = "mean5Min"
	MetricDayMin5Min = "dayMin5Min"
	MetricDayMax5Min = "dayMax5Min"
)

// descriptors is the static metric table. A slot whose metric is not listed
// for its kind must never be read or written.
var descriptors = buildDescriptors()

func bucketDescriptors(role string, unit bool) []Descriptor {
	out := make([]Descriptor, 0, len(Periods))
	for _, p := range Periods {
		out = append(out, Descriptor{Name: BucketMetric(p), Type: TypeNumber, Unit: unit, Role: role, Saved: true})
	}
	return out
}

func buildDescriptors() map[Kind]map[string]Descriptor {
	table := map[Kind][]Descriptor{
		KindCount: append(bucketDescriptors(RoleValue, false),
			Descriptor{Name: MetricLastPulse, Type: TypeMixed, Role: RoleState}),
		KindSumCount: bucketDescriptors(RoleSum, true),
		KindSumDelta: append(bucketDescriptors(RoleSum, true),
			Descriptor{Name: MetricLast, Type: TypeNumber, Unit: true, Role: RoleValue},
			Descriptor{Name: MetricDelta, Type: TypeNumber, Unit: true, Role: RoleValue}),
		KindSumGroup: bucketDescriptors(RoleSum, false),
		KindAvg: {
			{Name: MetricDayCount, Type: TypeNumber, Role: RoleValue},
			{Name: MetricDaySum, Type: TypeNumber, Unit: true, Role: RoleSum},
			{Name: MetricDayAvg, Type: TypeNumber, Unit: true, Role: RoleValue, Saved: true},
			{Name: MetricDayMin, Type: TypeNumber, Unit: true, Role: RoleMin, Saved: true},
			{Name: MetricDayMax, Type: TypeNumber, Unit: true, Role: RoleMax, Saved: true},
			{Name: MetricLast, Type: TypeNumber, Unit: true, Role: RoleValue},
		},
		KindFiveMin: {
			{Name: MetricStart5Min, Type: TypeNumber, Unit: true, Role: RoleValue},
			{Name: MetricMean5Min, Type: TypeNumber, Unit: true, Role: RoleValue},
			{Name: MetricDayMin5Min, Type: TypeNumber, Unit: true, Role: RoleMin, Saved: true},
			{Name: MetricDayMax5Min, Type: TypeNumber, Unit: true, Role: RoleMax, Saved: true},
		},
	}

	minmax := []Descriptor{
		{Name: MetricAbsMin, Type: TypeNumber, Unit: true, Role: RoleMin},
		{Name: MetricAbsMax, Type: TypeNumber, Unit: true, Role: RoleMax},
		{Name: MetricLast, Type: TypeNumber, Unit: true, Role: RoleValue},
	}
	for _, p := range ExtremaPeriods {
		minmax = append(minmax,
			Descriptor{Name: MinMetric(p), Type: TypeNumber, Unit: true, Role: RoleMin, Saved: true},
			Descriptor{Name: MaxMetric(p), Type: TypeNumber, Unit: true, Role: RoleMax, Saved: true})
	}
	table[KindMinMax] = minmax

	timeCount := []Descriptor{
		{Name: MetricLast, Type: TypeMixed, Role: RoleState},
		{Name: MetricLast01, Type: TypeNumber, Role: RoleDate},
		{Name: MetricLast10, Type: TypeNumber, Role: RoleDate},
	}
	for _, p := range Periods {
		saved := p >= PeriodDay
		timeCount = append(timeCount,
			Descriptor{Name: OnMetric(p), Type: TypeNumber, Role: RoleInterval, Saved: saved},
			Descriptor{Name: OffMetric(p), Type: TypeNumber, Role: RoleInterval, Saved: saved})
	}
	table[KindTimeCount] = timeCount

	out := make(map[Kind]map[string]Descriptor, len(table))
	for k, list := range table {
		byName := make(map[string]Descriptor, len(list))
		for _, d := range list {
			byName[d.Name] = d
		}
		out[k] = byName
	}
	return out
}

// Lookup returns the descriptor for metric of kind k in namespace ns.
func Lookup(ns Namespace, k Kind, metric string) (Descriptor, error) {
	if ns != Live && ns != Saved {
		return Descriptor{}, fmt.Errorf("%w: namespace %q", ErrInvalidKey, ns)
	}
	d, ok := descriptors[k][metric]
	if !ok || (ns == Saved && !d.Saved) {
		return Descriptor{}, fmt.Errorf("%w: %s.%s.%s", ErrUnknownMetric, ns, k, metric)
	}
	return d, nil
}

// Descriptors lists the metrics of kind k in namespace ns, sorted by name.
func Descriptors(ns Namespace, k Kind) []Descriptor {
	var out []Descriptor
	for _, d := range descriptors[k] {
		if ns == Saved && !d.Saved {
			continue
		}
		out = append(out, d)
	}
	sortDescriptors(out)
	return out
}

func sortDescriptors(ds []Descriptor) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Name < ds[j].Name })
}

// Key builds the store key of a slot: {namespace}.{kind}.{owner}.{metric}.
// The owner is a source id, or a group id for sumGroup slots.
func Key(ns Namespace, k Kind, owner, metric string) string {
	return string(ns) + "." + k.String() + "." + owner + "." + metric
}

// Prefix is the key prefix shared by every slot of owner and kind in ns.
func Prefix(ns Namespace, k Kind, owner string) string {
	return string(ns) + "." + k.String() + "." + owner + "."
}

// SlotKey is a parsed store key.
type SlotKey struct {
	Namespace Namespace
	Kind      Kind
	Owner     string
	Metric    string
}

// ParseKey splits a store key. Owners may themselves contain dots, so the
// namespace and kind are taken from the front and the metric from the back.
func ParseKey(key string) (SlotKey, error) {
	first := strings.IndexByte(key, '.')
	if first < 0 {
		return SlotKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	rest := key[first+1:]
	second := strings.IndexByte(rest, '.')
	last := strings.LastIndexByte(rest, '.')
	if second < 0 || last <= second {
		return SlotKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	k, err := ParseKind(rest[:second])
	if err != nil {
		return SlotKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return SlotKey{
		Namespace: Namespace(key[:first]),
		Kind:      k,
		Owner:     rest[second+1 : last],
		Metric:    rest[last+1:],
	}, nil
}
