package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/county-atlas/internal/classify"
	"github.com/sells-group/county-atlas/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it in
// tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	key_column TEXT NOT NULL,
	fields     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS records (
	dataset_id TEXT NOT NULL REFERENCES datasets(id),
	region_key TEXT NOT NULL,
	field      TEXT NOT NULL,
	raw        TEXT NOT NULL DEFAULT '',
	num        DOUBLE PRECISION,
	valid      BOOLEAN NOT NULL DEFAULT false,
	PRIMARY KEY (dataset_id, region_key, field)
);

CREATE TABLE IF NOT EXISTS classifications (
	dataset_id TEXT NOT NULL REFERENCES datasets(id),
	field      TEXT NOT NULL,
	mode       TEXT NOT NULL,
	breaks     JSONB NOT NULL,
	palette    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (dataset_id, field)
);

CREATE INDEX IF NOT EXISTS idx_records_dataset ON records(dataset_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveDataset(ctx context.Context, ds *model.Dataset, records []*model.Record) error {
	if ds.ID == "" {
		ds.ID = uuid.New().String()
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now().UTC()
	}

	fieldsJSON, err := json.Marshal(ds.Fields)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal fields")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO datasets (id, name, key_column, fields, created_at) VALUES ($1, $2, $3, $4, $5)`,
		ds.ID, ds.Name, ds.KeyColumn, string(fieldsJSON), ds.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert dataset")
	}

	// COPY is the fastest path for the record fan-out (regions x fields).
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		for field, v := range rec.Fields {
			var num any
			if v.Valid {
				num = v.Num
			}
			rows = append(rows, []any{ds.ID, rec.Key, field, v.Raw, num, v.Valid})
		}
	}

	_, err = s.pool.CopyFrom(ctx, pgx.Identifier{"records"},
		[]string{"dataset_id", "region_key", "field", "raw", "num", "valid"},
		pgx.CopyFromRows(rows),
	)
	return eris.Wrap(err, "postgres: copy records")
}

func (s *PostgresStore) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	var (
		ds      model.Dataset
		fieldsS string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, key_column, fields, created_at FROM datasets WHERE id = $1`, id).
		Scan(&ds.ID, &ds.Name, &ds.KeyColumn, &fieldsS, &ds.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get dataset %s", id)
	}
	if err := json.Unmarshal([]byte(fieldsS), &ds.Fields); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal fields")
	}
	return &ds, nil
}

func (s *PostgresStore) ListDatasets(ctx context.Context) ([]model.Dataset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_column, fields, created_at FROM datasets ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list datasets")
	}
	defer rows.Close()

	var out []model.Dataset
	for rows.Next() {
		var (
			ds      model.Dataset
			fieldsS string
		)
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.KeyColumn, &fieldsS, &ds.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan dataset")
		}
		if err := json.Unmarshal([]byte(fieldsS), &ds.Fields); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal fields")
		}
		out = append(out, ds)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate datasets")
}

func (s *PostgresStore) LoadRecords(ctx context.Context, datasetID string) ([]*model.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT region_key, field, raw, num, valid FROM records WHERE dataset_id = $1 ORDER BY region_key`,
		datasetID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load records")
	}
	defer rows.Close()

	byKey := make(map[string]*model.Record)
	var order []string
	for rows.Next() {
		var (
			key, field, raw string
			num             *float64
			valid           bool
		)
		if err := rows.Scan(&key, &field, &raw, &num, &valid); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		rec, ok := byKey[key]
		if !ok {
			rec = &model.Record{Key: key, Fields: make(map[string]model.Value)}
			byKey[key] = rec
			order = append(order, key)
		}
		v := model.Value{Raw: raw, Valid: valid}
		if num != nil {
			v.Num = *num
		}
		rec.Fields[field] = v
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate records")
	}

	out := make([]*model.Record, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out, nil
}

func (s *PostgresStore) SaveClassification(ctx context.Context, c *SavedClassification) error {
	breaksJSON, err := json.Marshal(c.Breaks)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal breaks")
	}
	paletteJSON, err := json.Marshal(c.Palette)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal palette")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO classifications (dataset_id, field, mode, breaks, palette)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (dataset_id, field) DO UPDATE SET
			mode = EXCLUDED.mode,
			breaks = EXCLUDED.breaks,
			palette = EXCLUDED.palette,
			created_at = now()`,
		c.DatasetID, c.Field, string(c.Mode), string(breaksJSON), string(paletteJSON),
	)
	return eris.Wrap(err, "postgres: save classification")
}

func (s *PostgresStore) GetClassification(ctx context.Context, datasetID, field string) (*SavedClassification, error) {
	var (
		c                 SavedClassification
		mode              string
		breaksS, paletteS string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT mode, breaks, palette FROM classifications WHERE dataset_id = $1 AND field = $2`,
		datasetID, field).Scan(&mode, &breaksS, &paletteS)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get classification")
	}

	c.DatasetID = datasetID
	c.Field = field
	c.Mode = classify.Mode(mode)
	if err := json.Unmarshal([]byte(breaksS), &c.Breaks); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal breaks")
	}
	if err := json.Unmarshal([]byte(paletteS), &c.Palette); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal palette")
	}
	return &c, nil
}
