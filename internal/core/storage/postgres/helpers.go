package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aevon-lab/tally/internal/core/aggregation"
	"github.com/aevon-lab/tally/internal/core/partition"
	"github.com/aevon-lab/tally/internal/core/storage"
)

// partitionFor places a slot in the partition of its owner.
// Keys that do not parse as slot keys are partitioned by the whole key.
func partitionFor(key string) int {
	sk, err := aggregation.ParseKey(key)
	if err != nil {
		return partition.For(key)
	}
	return partition.For(sk.Owner)
}

// marshalValue encodes a slot value as JSON for the JSONB column.
func marshalValue(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal slot value: %w", err)
	}
	return raw, nil
}

// nullTime maps the zero time to SQL NULL.
func nullTime(ts time.Time) sql.NullTime {
	if ts.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: ts, Valid: true}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanSlotRow scans one (key, value, ts) row.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanSlotRow(row scanner) (storage.State, error) {
	var (
		st  storage.State
		raw []byte
		ts  sql.NullTime
	)
	if err := row.Scan(&st.Key, &raw, &ts); err != nil {
		return storage.State{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &st.Value); err != nil {
			return storage.State{}, fmt.Errorf("failed to unmarshal slot %q: %w", st.Key, err)
		}
	}
	if ts.Valid {
		st.TS = ts.Time
	}
	return st, nil
}
