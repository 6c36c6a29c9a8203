package postgres

// SQL queries for slot storage. Keys are unique; partition_id is derived from
// the slot owner so every slot of one source lands in the same partition.

const (
	// querySetSlot creates or overwrites a slot.
	querySetSlot = `
		INSERT INTO slots (key, partition_id, value, ts, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			value      = EXCLUDED.value,
			ts         = EXCLUDED.ts,
			updated_at = EXCLUDED.updated_at
	`

	queryGetSlot = `
		SELECT key, value, ts
		FROM slots
		WHERE key = $1
	`

	queryDeleteSlot = `DELETE FROM slots WHERE key = $1`

	// queryListSlots returns every slot under a key prefix in key order.
	queryListSlots = `
		SELECT key, value, ts
		FROM slots
		WHERE starts_with(key, $1)
		ORDER BY key ASC
	`

	queryValidateSchema = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'slots'
		)
	`
)
