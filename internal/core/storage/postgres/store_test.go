package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aevon-lab/tally/internal/core/partition"
	"github.com/aevon-lab/tally/internal/core/storage"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 8, 13, 12, 0, 0, 0, time.UTC)

func TestStore_Set(t *testing.T) {
	ts := time.Date(2026, 8, 13, 11, 59, 0, 0, time.UTC)

	tests := []struct {
		name       string
		key        string
		value      any
		ts         time.Time
		mockResult func(mock sqlmock.Sqlmock)
		assertions func(t *testing.T, err error)
	}{
		{
			name:  "number with timestamp",
			key:   "live.sumDelta.hm.0.meter.day",
			value: 12.5,
			ts:    ts,
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(querySetSlot)).
					WithArgs("live.sumDelta.hm.0.meter.day", partition.For("hm.0.meter"), []byte("12.5"), ts, fixedNow).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			assertions: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:  "zero timestamp stored as null",
			key:   "live.count.door.lastPulse",
			value: "on",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(querySetSlot)).
					WithArgs("live.count.door.lastPulse", partition.For("door"), []byte(`"on"`), nil, fixedNow).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			assertions: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:  "exec error is wrapped",
			key:   "live.count.door.day",
			value: 1.0,
			ts:    ts,
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(querySetSlot)).
					WillReturnError(errors.New("connection reset"))
			},
			assertions: func(t *testing.T, err error) {
				require.ErrorContains(t, err, "failed to set slot")
				require.ErrorContains(t, err, "connection reset")
			},
		},
		{
			name:  "unmarshalable value short-circuits",
			key:   "live.count.door.day",
			value: make(chan int),
			assertions: func(t *testing.T, err error) {
				require.ErrorContains(t, err, "failed to marshal slot value")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, mock, db := newMockStore(t)
			defer db.Close()

			if tc.mockResult != nil {
				tc.mockResult(mock)
			}

			err := store.Set(context.Background(), tc.key, tc.value, tc.ts)
			tc.assertions(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Get(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	ts := time.Date(2026, 8, 13, 11, 59, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(queryGetSlot)).
		WithArgs("live.avg.temp.last").
		WillReturnRows(sqlmock.NewRows(slotRowColumns()).AddRow("live.avg.temp.last", []byte("21.5"), ts))
	mock.ExpectQuery(regexp.QuoteMeta(queryGetSlot)).
		WithArgs("live.timeCount.pump.last").
		WillReturnRows(sqlmock.NewRows(slotRowColumns()).AddRow("live.timeCount.pump.last", []byte("true"), nil))
	mock.ExpectQuery(regexp.QuoteMeta(queryGetSlot)).
		WithArgs("live.avg.missing.last").
		WillReturnRows(sqlmock.NewRows(slotRowColumns()))

	st, err := store.Get(context.Background(), "live.avg.temp.last")
	require.NoError(t, err)
	require.Equal(t, 21.5, st.Value)
	require.Equal(t, ts, st.TS)

	st, err = store.Get(context.Background(), "live.timeCount.pump.last")
	require.NoError(t, err)
	require.Equal(t, true, st.Value)
	require.True(t, st.TS.IsZero())

	_, err = store.Get(context.Background(), "live.avg.missing.last")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_List(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	ts := time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(queryListSlots)).
		WithArgs("saved.count.door.").
		WillReturnRows(sqlmock.NewRows(slotRowColumns()).
			AddRow("saved.count.door.day", []byte("4"), ts).
			AddRow("saved.count.door.hour", []byte("1"), ts),
		).RowsWillBeClosed()

	got, err := store.List(context.Background(), "saved.count.door.")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "saved.count.door.day", got[0].Key)
	require.Equal(t, float64(4), got[0].Value)
	require.Equal(t, "saved.count.door.hour", got[1].Key)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListBadJSON(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryListSlots)).
		WithArgs("live.").
		WillReturnRows(sqlmock.NewRows(slotRowColumns()).AddRow("live.count.x.day", []byte("{"), nil))

	_, err := store.List(context.Background(), "live.")
	require.ErrorContains(t, err, "failed to unmarshal slot")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(queryDeleteSlot)).
		WithArgs("live.count.door.day").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "live.count.door.day"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStore_MissingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryValidateSchema)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err = NewStore(db)
	require.ErrorContains(t, err, "did you run migrations")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPartitionFor(t *testing.T) {
	require.Equal(t, partition.For("hm.0.meter"), partitionFor("saved.sumDelta.hm.0.meter.year"))
	require.Equal(t, partition.For("not-a-key"), partitionFor("not-a-key"))
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store := &Store{
		db:         db,
		now:        func() time.Time { return fixedNow },
		stmtSet:    mustPrepareStmt(t, db, mock, querySetSlot),
		stmtGet:    mustPrepareStmt(t, db, mock, queryGetSlot),
		stmtDelete: mustPrepareStmt(t, db, mock, queryDeleteSlot),
		stmtList:   mustPrepareStmt(t, db, mock, queryListSlots),
	}

	return store, mock, db
}

func mustPrepareStmt(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock, query string) *sql.Stmt {
	t.Helper()

	mock.ExpectPrepare(regexp.QuoteMeta(query))
	stmt, err := db.Prepare(query)
	require.NoError(t, err)

	return stmt
}

func slotRowColumns() []string {
	return []string{"key", "value", "ts"}
}
