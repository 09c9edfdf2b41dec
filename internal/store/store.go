// Package store persists imported datasets and classification results,
// backed by SQLite or Postgres.
package store

import (
	"context"

	"github.com/sells-group/county-atlas/internal/classify"
	"github.com/sells-group/county-atlas/internal/model"
)

// SavedClassification is a persisted classification outcome for one field.
type SavedClassification struct {
	DatasetID string        `json:"dataset_id"`
	Field     string        `json:"field"`
	Mode      classify.Mode `json:"mode"`
	Breaks    []float64     `json:"breaks"`
	Palette   []string      `json:"palette"`
}

// Store defines the persistence interface.
type Store interface {
	// Datasets
	SaveDataset(ctx context.Context, ds *model.Dataset, records []*model.Record) error
	GetDataset(ctx context.Context, id string) (*model.Dataset, error)
	ListDatasets(ctx context.Context) ([]model.Dataset, error)
	LoadRecords(ctx context.Context, datasetID string) ([]*model.Record, error)

	// Classifications
	SaveClassification(ctx context.Context, c *SavedClassification) error
	GetClassification(ctx context.Context, datasetID, field string) (*SavedClassification, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
