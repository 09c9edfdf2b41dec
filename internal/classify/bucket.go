package classify

import (
	"github.com/sells-group/county-atlas/internal/model"
)

// BucketKind discriminates the bucket tag variants.
type BucketKind int

// Bucket tag variants. A region is either unclassifiable (no matching record
// or invalid value), above the last break, or inside a concrete class.
const (
	BucketNoData BucketKind = iota
	BucketValue
	BucketOverflow
)

// BucketTag identifies the class a region falls into. Break and Index are
// meaningful only when Kind is BucketValue.
type BucketTag struct {
	Kind  BucketKind `json:"kind"`
	Break float64    `json:"break,omitempty"`
	Index int        `json:"index,omitempty"`
}

// NoData returns the tag for regions without a usable value.
func NoData() BucketTag { return BucketTag{Kind: BucketNoData} }

// Overflow returns the tag for values above the last break.
func Overflow() BucketTag { return BucketTag{Kind: BucketOverflow} }

// Bucket returns the tag for the i-th class, identified by its upper break.
func Bucket(i int, breakValue float64) BucketTag {
	return BucketTag{Kind: BucketValue, Break: breakValue, Index: i}
}

// String renders the tag for logs and the HTTP API.
func (t BucketTag) String() string {
	switch t.Kind {
	case BucketNoData:
		return "none"
	case BucketOverflow:
		return "overflow"
	default:
		return "bucket"
	}
}

// AssignBucket places a value into a class. Breaks are scanned in ascending
// order and the first break >= value wins, so a value exactly on a boundary
// belongs to that boundary's bucket. Pure and deterministic.
func AssignBucket(v model.Value, breaks []float64) BucketTag {
	num, ok := v.Float()
	if !ok {
		return NoData()
	}
	for i, b := range breaks {
		if num <= b {
			return Bucket(i, b)
		}
	}
	return Overflow()
}
