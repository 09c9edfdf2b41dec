package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/county-atlas/internal/classify"
	"github.com/sells-group/county-atlas/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS datasets").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveDataset(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO datasets").
		WithArgs(pgxmock.AnyArg(), "counties", "county", `["revenue"]`, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"records"},
		[]string{"dataset_id", "region_key", "field", "raw", "num", "valid"}).
		WillReturnResult(2)

	ds := &model.Dataset{Name: "counties", KeyColumn: "county", Fields: []string{"revenue"}}
	records := []*model.Record{
		{Key: "Adams", Fields: map[string]model.Value{"revenue": {Raw: "100", Num: 100, Valid: true}}},
		{Key: "Brown", Fields: map[string]model.Value{"revenue": {Raw: "n/a"}}},
	}

	require.NoError(t, s.SaveDataset(context.Background(), ds, records))
	assert.NotEmpty(t, ds.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetDataset(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, name, key_column, fields, created_at FROM datasets").
		WithArgs("ds-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "key_column", "fields", "created_at"}).
			AddRow("ds-1", "counties", "county", `["revenue","density"]`, now))

	got, err := s.GetDataset(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, "counties", got.Name)
	assert.Equal(t, []string{"revenue", "density"}, got.Fields)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadRecords(t *testing.T) {
	s, mock := newMockStore(t)
	num := 100.0

	mock.ExpectQuery("SELECT region_key, field, raw, num, valid FROM records").
		WithArgs("ds-1").
		WillReturnRows(pgxmock.NewRows([]string{"region_key", "field", "raw", "num", "valid"}).
			AddRow("Adams", "revenue", "100", &num, true).
			AddRow("Adams", "notes", "rural", nil, false).
			AddRow("Brown", "revenue", "n/a", nil, false))

	got, err := s.LoadRecords(context.Background(), "ds-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Adams", got[0].Key)
	assert.Equal(t, model.Value{Raw: "100", Num: 100, Valid: true}, got[0].Fields["revenue"])
	assert.Equal(t, model.Value{Raw: "rural"}, got[0].Fields["notes"])
	assert.Equal(t, "Brown", got[1].Key)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveClassification(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO classifications").
		WithArgs("ds-1", "revenue", "natural", "[10,20]", `["#fee0d2","#de2d26"]`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c := &SavedClassification{
		DatasetID: "ds-1",
		Field:     "revenue",
		Mode:      classify.ModeNatural,
		Breaks:    []float64{10, 20},
		Palette:   []string{"#fee0d2", "#de2d26"},
	}
	require.NoError(t, s.SaveClassification(context.Background(), c))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetClassification_NoRows(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT mode, breaks, palette FROM classifications").
		WithArgs("ds-1", "revenue").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetClassification(context.Background(), "ds-1", "revenue")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetClassification(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT mode, breaks, palette FROM classifications").
		WithArgs("ds-1", "revenue").
		WillReturnRows(pgxmock.NewRows([]string{"mode", "breaks", "palette"}).
			AddRow("quantile", "[1,2,3,4]", `["#a","#b","#c","#d","#e"]`))

	got, err := s.GetClassification(context.Background(), "ds-1", "revenue")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, classify.ModeQuantile, got.Mode)
	assert.Equal(t, []float64{1, 2, 3, 4}, got.Breaks)
	assert.Len(t, got.Palette, 5)
	require.NoError(t, mock.ExpectationsWereMet())
}
