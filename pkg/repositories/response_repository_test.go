package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/askdb/pkg/apperrors"
	"github.com/ekaya-inc/askdb/pkg/models"
)

// fakeQuerier records Exec arguments and answers QueryRow with scanFunc.
type fakeQuerier struct {
	execErr  error
	execArgs []any
	scanFunc func(dest ...any) error
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return fakeRow{scan: f.scanFunc}
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

func TestResponseRepository_Save_AssignsIDAndTimestamps(t *testing.T) {
	q := &fakeQuerier{}
	repo := NewResponseRepository(q)

	resp := &models.CachedResponse{
		ResponseID:   "resp_20240131_154500_1a2b3c4d5e6f",
		ProjectID:    "proj-1",
		Question:     "How many orders?",
		GeneratedSQL: `SELECT COUNT(*) FROM "ORDERS"`,
		Metadata:     models.ResponseMetadata{DatabaseType: "postgres", UsedFallback: true},
	}
	require.NoError(t, repo.Save(context.Background(), resp))

	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.False(t, resp.CreatedAt.IsZero())
	require.Len(t, q.execArgs, 11)
	assert.Equal(t, "proj-1", q.execArgs[1])

	var meta models.ResponseMetadata
	require.NoError(t, json.Unmarshal(q.execArgs[8].([]byte), &meta))
	assert.True(t, meta.UsedFallback)
}

func TestResponseRepository_Save_Duplicate(t *testing.T) {
	q := &fakeQuerier{execErr: &pgconn.PgError{Code: "23505", ConstraintName: "response_logs_project_response_key"}}
	repo := NewResponseRepository(q)

	err := repo.Save(context.Background(), &models.CachedResponse{ResponseID: "r", ProjectID: "p"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestResponseRepository_Save_RequiresKeys(t *testing.T) {
	repo := NewResponseRepository(&fakeQuerier{})

	err := repo.Save(context.Background(), &models.CachedResponse{ProjectID: "p"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestResponseRepository_Get_NotFound(t *testing.T) {
	q := &fakeQuerier{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	repo := NewResponseRepository(q)

	_, err := repo.Get(context.Background(), "p", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestResponseRepository_Get_DecodesJSONColumns(t *testing.T) {
	created := time.Date(2024, 1, 31, 15, 45, 0, 0, time.UTC)
	q := &fakeQuerier{scanFunc: func(dest ...any) error {
		*dest[0].(*uuid.UUID) = uuid.MustParse("6f1c1b8e-8f57-4d3c-9d7e-0a8b7d1b2c3d")
		*dest[1].(*string) = "proj-1"
		*dest[2].(*string) = "resp_1"
		*dest[3].(*string) = "total by region"
		*dest[4].(*string) = `SELECT "REGION", SUM("AMOUNT") FROM "SALES" GROUP BY "REGION"`
		*dest[5].(*[]byte) = []byte(`{"time_period":null,"group_by":["REGION"],"metrics":["SUM(AMOUNT)"],"filters":{}}`)
		*dest[6].(*string) = "North leads."
		*dest[7].(*string) = "North is ahead."
		*dest[8].(*[]byte) = []byte(`{"source_tables":["SALES"],"database_type":"postgres","total_rows_returned":3}`)
		*dest[9].(*time.Time) = created
		*dest[10].(*time.Time) = created
		return nil
	}}
	repo := NewResponseRepository(q)

	resp, err := repo.Get(context.Background(), "proj-1", "resp_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"REGION"}, resp.QueryFilterData.GroupBy)
	assert.Equal(t, []string{"SALES"}, resp.Metadata.SourceTables)
	assert.Equal(t, 3, resp.Metadata.TotalRowsReturned)
	assert.Equal(t, created, resp.CreatedAt)
}

func TestResponseRepository_Get_WrapsOtherErrors(t *testing.T) {
	q := &fakeQuerier{scanFunc: func(dest ...any) error { return errors.New("conn closed") }}
	repo := NewResponseRepository(q)

	_, err := repo.Get(context.Background(), "p", "r")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "conn closed")
}
