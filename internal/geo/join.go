package geo

import (
	"github.com/sells-group/county-atlas/internal/classify"
	"github.com/sells-group/county-atlas/internal/table"
)

// Assign joins each region to its record by exact key match and places it in
// a break bucket. A join miss or invalid value is NoData; a value above the
// last break is Overflow. Pure given (regions, table, field, breaks).
func Assign(regions []Region, t *table.Table, field string, breaks []float64) map[string]classify.BucketTag {
	byKey := make(map[string]int, len(t.Records))
	for i, rec := range t.Records {
		byKey[rec.Key] = i
	}

	tags := make(map[string]classify.BucketTag, len(regions))
	for i := range regions {
		key := regions[i].Key
		idx, ok := byKey[key]
		if !ok {
			tags[key] = classify.NoData()
			continue
		}
		tags[key] = classify.AssignBucket(t.Records[idx].Value(field), breaks)
	}
	return tags
}
