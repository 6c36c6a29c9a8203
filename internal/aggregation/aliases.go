package aggregation

import core "github.com/aevon-lab/tally/internal/core/aggregation"

// Re-export the core enums the engine API is expressed in.
type Kind = core.Kind
type Period = core.Period
type Namespace = core.Namespace

const (
	Live  = core.Live
	Saved = core.Saved
)

var (
	Periods        = core.Periods
	ExtremaPeriods = core.ExtremaPeriods
	ParsePeriod    = core.ParsePeriod
	ParseKind      = core.ParseKind
)
