package registry

import (
	"errors"
	"fmt"

	v1 "github.com/aevon-lab/tally/internal/api/v1"
	"github.com/aevon-lab/tally/internal/core/aggregation"
)

var (
	ErrInvalidSource = errors.New("invalid source")
	ErrUnknownGroup  = errors.New("unknown group")
	ErrNotFound      = errors.New("source not found")
)

// Source is a validated, monitored point.
type Source struct {
	ID             string
	Enabled        bool
	LogName        string
	Kinds          aggregation.KindSet
	Unit           string
	UnitPerPulse   float64
	GroupFactor    float64
	SumIgnoreMinus bool
	GroupID        string
}

// Has reports whether kind k is enabled for the source.
func (s Source) Has(k aggregation.Kind) bool {
	return s.Kinds.Has(k)
}

// Grouped reports whether the source contributes to a cost group.
func (s Source) Grouped() bool {
	return s.Has(aggregation.KindSumGroup) && s.GroupID != ""
}

// FromConfig validates cfg and builds a Source with defaults applied.
func FromConfig(cfg v1.SourceConfig) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}

	kinds := cfg.Kinds()
	if len(kinds) == 0 {
		return Source{}, fmt.Errorf("%w: %q enables no aggregate", ErrInvalidSource, cfg.ID)
	}
	if kinds.Has(aggregation.KindSumGroup) {
		pulses := kinds.Has(aggregation.KindSumCount) && kinds.Has(aggregation.KindCount)
		if !kinds.Has(aggregation.KindSumDelta) && !pulses {
			return Source{}, fmt.Errorf("%w: %q: sumGroup needs sumDelta, or sumCount and count", ErrInvalidSource, cfg.ID)
		}
	}

	src := Source{
		ID:             cfg.ID,
		Enabled:        cfg.IsEnabled(),
		LogName:        cfg.LogName,
		Kinds:          kinds,
		Unit:           cfg.Unit,
		UnitPerPulse:   1,
		GroupFactor:    1,
		SumIgnoreMinus: cfg.SumIgnoreMinus,
	}
	if cfg.ImpUnitPerImpulse != nil {
		src.UnitPerPulse = *cfg.ImpUnitPerImpulse
	}
	if cfg.GroupFactor != nil {
		src.GroupFactor = *cfg.GroupFactor
	}
	if cfg.SumGroup {
		src.GroupID = cfg.GroupName
	}
	if src.LogName == "" {
		src.LogName = src.ID
	}
	return src, nil
}

// Config renders the source back to its wire form.
func (s Source) Config() v1.SourceConfig {
	enabled := s.Enabled
	unitPerPulse := s.UnitPerPulse
	groupFactor := s.GroupFactor
	return v1.SourceConfig{
		ID:                s.ID,
		Enabled:           &enabled,
		LogName:           s.LogName,
		Count:             s.Has(aggregation.KindCount),
		SumCount:          s.Has(aggregation.KindSumCount),
		SumDelta:          s.Has(aggregation.KindSumDelta),
		SumGroup:          s.Has(aggregation.KindSumGroup),
		MinMax:            s.Has(aggregation.KindMinMax),
		Avg:               s.Has(aggregation.KindAvg),
		FiveMin:           s.Has(aggregation.KindFiveMin),
		TimeCount:         s.Has(aggregation.KindTimeCount),
		Unit:              s.Unit,
		ImpUnitPerImpulse: &unitPerPulse,
		GroupFactor:       &groupFactor,
		SumIgnoreMinus:    s.SumIgnoreMinus,
		GroupName:         s.GroupID,
	}
}

// Group aggregates sumGroup contributions of its member sources.
type Group struct {
	ID        string
	Price     float64
	PriceUnit string
	Members   []string
}
