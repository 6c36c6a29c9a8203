package sources

import (
	"time"

	v1 "github.com/aevon-lab/tally/internal/api/v1"
)

// ChangeResponse is returned by PUT /v1/sources/:id.
type ChangeResponse struct {
	Change string          `json:"change"`
	Source v1.SourceConfig `json:"source"`
}

// GroupResponse describes a declared cost group and its members.
type GroupResponse struct {
	ID        string   `json:"id"`
	Price     float64  `json:"price"`
	PriceUnit string   `json:"price_unit,omitempty"`
	Members   []string `json:"members"`
}

// StateValue is one stored slot with its descriptor.
type StateValue struct {
	Key    string    `json:"key"`
	Kind   string    `json:"kind"`
	Metric string    `json:"metric"`
	Value  any       `json:"value"`
	TS     time.Time `json:"ts"`
	Role   string    `json:"role,omitempty"`
	Unit   string    `json:"unit,omitempty"`
}

// StatesResponse lists the slots of one source or group in one namespace.
type StatesResponse struct {
	Owner     string       `json:"owner"`
	Namespace string       `json:"namespace"`
	States    []StateValue `json:"states"`
}
