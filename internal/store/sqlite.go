package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/county-atlas/internal/classify"
	"github.com/sells-group/county-atlas/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	key_column TEXT NOT NULL,
	fields     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS records (
	dataset_id TEXT NOT NULL REFERENCES datasets(id),
	region_key TEXT NOT NULL,
	field      TEXT NOT NULL,
	raw        TEXT NOT NULL DEFAULT '',
	num        REAL,
	valid      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (dataset_id, region_key, field)
);

CREATE TABLE IF NOT EXISTS classifications (
	dataset_id TEXT NOT NULL REFERENCES datasets(id),
	field      TEXT NOT NULL,
	mode       TEXT NOT NULL,
	breaks     TEXT NOT NULL,
	palette    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (dataset_id, field)
);

CREATE INDEX IF NOT EXISTS idx_records_dataset ON records(dataset_id);
CREATE INDEX IF NOT EXISTS idx_datasets_name ON datasets(name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveDataset(ctx context.Context, ds *model.Dataset, records []*model.Record) error {
	if ds.ID == "" {
		ds.ID = uuid.New().String()
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now().UTC()
	}

	fieldsJSON, err := json.Marshal(ds.Fields)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal fields")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO datasets (id, name, key_column, fields, created_at) VALUES (?, ?, ?, ?, ?)`,
		ds.ID, ds.Name, ds.KeyColumn, string(fieldsJSON), ds.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert dataset")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (dataset_id, region_key, field, raw, num, valid) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare record insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, rec := range records {
		for field, v := range rec.Fields {
			var num sql.NullFloat64
			if v.Valid {
				num = sql.NullFloat64{Float64: v.Num, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, ds.ID, rec.Key, field, v.Raw, num, boolToInt(v.Valid)); err != nil {
				return eris.Wrapf(err, "sqlite: insert record %s/%s", rec.Key, field)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit dataset")
	}
	return nil
}

func (s *SQLiteStore) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, key_column, fields, created_at FROM datasets WHERE id = ?`, id)
	return scanDataset(row)
}

func (s *SQLiteStore) ListDatasets(ctx context.Context) ([]model.Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, key_column, fields, created_at FROM datasets ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list datasets")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ds)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate datasets")
}

func (s *SQLiteStore) LoadRecords(ctx context.Context, datasetID string) ([]*model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT region_key, field, raw, num, valid FROM records WHERE dataset_id = ? ORDER BY region_key`,
		datasetID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load records")
	}
	defer rows.Close() //nolint:errcheck

	byKey := make(map[string]*model.Record)
	var order []string
	for rows.Next() {
		var (
			key, field, raw string
			num             sql.NullFloat64
			valid           int
		)
		if err := rows.Scan(&key, &field, &raw, &num, &valid); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		rec, ok := byKey[key]
		if !ok {
			rec = &model.Record{Key: key, Fields: make(map[string]model.Value)}
			byKey[key] = rec
			order = append(order, key)
		}
		rec.Fields[field] = model.Value{Raw: raw, Num: num.Float64, Valid: valid != 0}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate records")
	}

	out := make([]*model.Record, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out, nil
}

func (s *SQLiteStore) SaveClassification(ctx context.Context, c *SavedClassification) error {
	breaksJSON, err := json.Marshal(c.Breaks)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal breaks")
	}
	paletteJSON, err := json.Marshal(c.Palette)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal palette")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO classifications (dataset_id, field, mode, breaks, palette)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (dataset_id, field) DO UPDATE SET
			mode = excluded.mode,
			breaks = excluded.breaks,
			palette = excluded.palette,
			created_at = datetime('now')`,
		c.DatasetID, c.Field, string(c.Mode), string(breaksJSON), string(paletteJSON),
	)
	return eris.Wrap(err, "sqlite: save classification")
}

func (s *SQLiteStore) GetClassification(ctx context.Context, datasetID, field string) (*SavedClassification, error) {
	var (
		c                       SavedClassification
		mode, breaksS, paletteS string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT mode, breaks, palette FROM classifications WHERE dataset_id = ? AND field = ?`,
		datasetID, field).Scan(&mode, &breaksS, &paletteS)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get classification")
	}

	c.DatasetID = datasetID
	c.Field = field
	c.Mode = classify.Mode(mode)
	if err := json.Unmarshal([]byte(breaksS), &c.Breaks); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal breaks")
	}
	if err := json.Unmarshal([]byte(paletteS), &c.Palette); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal palette")
	}
	return &c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (*model.Dataset, error) {
	var (
		ds      model.Dataset
		fieldsS string
	)
	if err := row.Scan(&ds.ID, &ds.Name, &ds.KeyColumn, &fieldsS, &ds.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrap(err, "sqlite: dataset not found")
		}
		return nil, eris.Wrap(err, "sqlite: scan dataset")
	}
	if err := json.Unmarshal([]byte(fieldsS), &ds.Fields); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal fields")
	}
	return &ds, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
