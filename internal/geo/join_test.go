package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/county-atlas/internal/classify"
	"github.com/sells-group/county-atlas/internal/model"
	"github.com/sells-group/county-atlas/internal/table"
)

func joinTable(rows map[string]model.Value) *table.Table {
	t := &table.Table{KeyColumn: "county", Headers: []string{"county", "v"}}
	for key, v := range rows {
		t.Records = append(t.Records, &model.Record{
			Key:    key,
			Fields: map[string]model.Value{"v": v},
		})
	}
	return t
}

func TestAssign(t *testing.T) {
	regions := []Region{
		squareRegion("Adams", 0, 0, 1),
		squareRegion("Brown", 1, 0, 1),
		squareRegion("Clark", 2, 0, 1),
		squareRegion("Dane", 3, 0, 1),
	}
	tbl := joinTable(map[string]model.Value{
		"Adams": {Raw: "5", Num: 5, Valid: true},
		"Brown": {Raw: "n/a"},
		"Clark": {Raw: "50", Num: 50, Valid: true},
	})

	tags := Assign(regions, tbl, "v", []float64{10, 20})

	assert.Equal(t, classify.Bucket(0, 10), tags["Adams"])
	assert.Equal(t, classify.NoData(), tags["Brown"], "invalid value")
	assert.Equal(t, classify.Overflow(), tags["Clark"], "above last break")
	assert.Equal(t, classify.NoData(), tags["Dane"], "join miss")
	assert.Len(t, tags, 4)
}

func TestAssign_Pure(t *testing.T) {
	regions := []Region{squareRegion("Adams", 0, 0, 1)}
	tbl := joinTable(map[string]model.Value{
		"Adams": {Raw: "5", Num: 5, Valid: true},
	})
	breaks := []float64{10}

	first := Assign(regions, tbl, "v", breaks)
	second := Assign(regions, tbl, "v", breaks)
	assert.Equal(t, first, second)
}
