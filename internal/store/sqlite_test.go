package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/county-atlas/internal/classify"
	"github.com/sells-group/county-atlas/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testRecords() []*model.Record {
	return []*model.Record{
		{
			Key: "Adams",
			Fields: map[string]model.Value{
				"revenue": {Raw: "1,234", Num: 1234, Valid: true},
				"notes":   {Raw: "rural"},
			},
		},
		{
			Key: "Brown",
			Fields: map[string]model.Value{
				"revenue": {Raw: "200", Num: 200, Valid: true},
				"notes":   {Raw: ""},
			},
		},
	}
}

func TestSQLite_SaveAndGetDataset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ds := &model.Dataset{
		Name:      "counties-2026",
		KeyColumn: "county",
		Fields:    []string{"revenue"},
	}
	require.NoError(t, s.SaveDataset(ctx, ds, testRecords()))
	require.NotEmpty(t, ds.ID)

	got, err := s.GetDataset(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, ds.Name, got.Name)
	assert.Equal(t, ds.KeyColumn, got.KeyColumn)
	assert.Equal(t, ds.Fields, got.Fields)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_GetDataset_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetDataset(context.Background(), "missing")
	require.Error(t, err)
}

func TestSQLite_ListDatasets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second"} {
		ds := &model.Dataset{Name: name, KeyColumn: "county", Fields: []string{"v"}}
		require.NoError(t, s.SaveDataset(ctx, ds, nil))
	}

	got, err := s.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLite_LoadRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ds := &model.Dataset{Name: "d", KeyColumn: "county", Fields: []string{"revenue"}}
	require.NoError(t, s.SaveDataset(ctx, ds, testRecords()))

	got, err := s.LoadRecords(ctx, ds.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byKey := map[string]*model.Record{}
	for _, rec := range got {
		byKey[rec.Key] = rec
	}

	adams := byKey["Adams"]
	require.NotNil(t, adams)
	assert.Equal(t, model.Value{Raw: "1,234", Num: 1234, Valid: true}, adams.Fields["revenue"])
	assert.Equal(t, model.Value{Raw: "rural"}, adams.Fields["notes"])
}

func TestSQLite_SaveClassification_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ds := &model.Dataset{Name: "d", KeyColumn: "county", Fields: []string{"revenue"}}
	require.NoError(t, s.SaveDataset(ctx, ds, nil))

	c := &SavedClassification{
		DatasetID: ds.ID,
		Field:     "revenue",
		Mode:      classify.ModeNatural,
		Breaks:    []float64{10, 20, 30},
		Palette:   []string{"#fee0d2", "#fc9272", "#de2d26"},
	}
	require.NoError(t, s.SaveClassification(ctx, c))

	// Same key again replaces the stored breaks.
	c.Mode = classify.ModeQuantile
	c.Breaks = []float64{5, 10, 15, 20}
	require.NoError(t, s.SaveClassification(ctx, c))

	got, err := s.GetClassification(ctx, ds.ID, "revenue")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, classify.ModeQuantile, got.Mode)
	assert.Equal(t, []float64{5, 10, 15, 20}, got.Breaks)
}

func TestSQLite_GetClassification_Missing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetClassification(context.Background(), "nope", "revenue")
	require.NoError(t, err)
	assert.Nil(t, got)
}
