package v1

import (
	"fmt"

	"github.com/aevon-lab/tally/internal/core/aggregation"
)

// SourceConfig declares which aggregates are kept for one source.
// The field names match the registry file and the PUT /v1/sources body.
type SourceConfig struct {
	ID      string `json:"id" yaml:"id"`
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled"`
	LogName string `json:"logName,omitempty" yaml:"logName"`

	Count     bool `json:"count,omitempty" yaml:"count"`
	SumCount  bool `json:"sumCount,omitempty" yaml:"sumCount"`
	SumDelta  bool `json:"sumDelta,omitempty" yaml:"sumDelta"`
	SumGroup  bool `json:"sumGroup,omitempty" yaml:"sumGroup"`
	MinMax    bool `json:"minmax,omitempty" yaml:"minmax"`
	Avg       bool `json:"avg,omitempty" yaml:"avg"`
	FiveMin   bool `json:"fiveMin,omitempty" yaml:"fiveMin"`
	TimeCount bool `json:"timeCount,omitempty" yaml:"timeCount"`

	Unit              string   `json:"unit,omitempty" yaml:"unit"`
	ImpUnitPerImpulse *float64 `json:"impUnitPerImpulse,omitempty" yaml:"impUnitPerImpulse"`
	GroupFactor       *float64 `json:"groupFactor,omitempty" yaml:"groupFactor"`
	SumIgnoreMinus    bool     `json:"sumIgnoreMinus,omitempty" yaml:"sumIgnoreMinus"`
	GroupName         string   `json:"groupName,omitempty" yaml:"groupName"`
}

// IsEnabled defaults to true when the flag is omitted.
func (c *SourceConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Kinds returns the enabled aggregate kinds.
func (c *SourceConfig) Kinds() aggregation.KindSet {
	flags := map[aggregation.Kind]bool{
		aggregation.KindCount:     c.Count,
		aggregation.KindSumCount:  c.SumCount,
		aggregation.KindSumDelta:  c.SumDelta,
		aggregation.KindSumGroup:  c.SumGroup,
		aggregation.KindMinMax:    c.MinMax,
		aggregation.KindAvg:       c.Avg,
		aggregation.KindFiveMin:   c.FiveMin,
		aggregation.KindTimeCount: c.TimeCount,
	}
	set := aggregation.NewKindSet()
	for k, on := range flags {
		if on {
			set[k] = struct{}{}
		}
	}
	return set
}

// Validate checks the attributes that do not depend on other sources or groups.
func (c *SourceConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if c.ImpUnitPerImpulse != nil && *c.ImpUnitPerImpulse <= 0 {
		return fmt.Errorf("impUnitPerImpulse must be > 0")
	}
	if c.GroupFactor != nil && *c.GroupFactor <= 0 {
		return fmt.Errorf("groupFactor must be > 0")
	}
	if c.SumGroup && c.GroupName == "" {
		return fmt.Errorf("groupName is required when sumGroup is enabled")
	}
	return nil
}

// GroupConfig declares a cost group sources can add sumGroup contributions to.
type GroupConfig struct {
	ID        string  `json:"id" yaml:"id"`
	Price     float64 `json:"price" yaml:"price"`
	PriceUnit string  `json:"price_unit,omitempty" yaml:"price_unit"`
}

// Validate ensures the group is usable.
func (g *GroupConfig) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("group id is required")
	}
	if g.Price < 0 {
		return fmt.Errorf("group %q: price must be >= 0", g.ID)
	}
	return nil
}
