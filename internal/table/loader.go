// Package table loads tabular county data from CSV or XLSX and parses
// heterogeneous numeric and ratio fields into a clean numeric domain.
package table

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/county-atlas/internal/model"
)

// Table is an in-memory dataset: one record per region plus the header row.
type Table struct {
	KeyColumn string
	Headers   []string
	Records   []*model.Record
}

// LoadFile loads a CSV or XLSX file, dispatching on extension.
func LoadFile(path, keyColumn string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return LoadXLSX(path, keyColumn)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "table: open file")
		}
		defer f.Close() //nolint:errcheck
		return LoadCSV(f, keyColumn)
	}
}

// LoadCSV reads a CSV stream into a Table. The first row is the header and
// must contain the region-key column. Duplicate region keys keep the first
// occurrence.
func LoadCSV(r io.Reader, keyColumn string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "table: read header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	keyIdx := columnIndex(header, keyColumn)
	if keyIdx < 0 {
		return nil, eris.Errorf("table: key column %q not found", keyColumn)
	}

	t := &Table{KeyColumn: keyColumn, Headers: header}
	seen := make(map[string]bool)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "table: read row")
		}
		appendRow(t, header, keyIdx, row, seen)
	}

	return t, nil
}

// LoadXLSX reads the first sheet of an XLSX file into a Table.
func LoadXLSX(path, keyColumn string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "table: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("table: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("table: xlsx sheet is empty")
	}

	header := rowToStrings(sheet.Rows[0])
	keyIdx := columnIndex(header, keyColumn)
	if keyIdx < 0 {
		return nil, eris.Errorf("table: key column %q not found", keyColumn)
	}

	t := &Table{KeyColumn: keyColumn, Headers: header}
	seen := make(map[string]bool)

	for _, row := range sheet.Rows[1:] {
		appendRow(t, header, keyIdx, rowToStrings(row), seen)
	}

	return t, nil
}

// appendRow converts one raw row into a Record. Parsed numeric values are
// filled in later by ParseField; loading only captures raw text.
func appendRow(t *Table, header []string, keyIdx int, row []string, seen map[string]bool) {
	if keyIdx >= len(row) {
		return
	}
	key := strings.TrimSpace(row[keyIdx])
	if key == "" {
		return
	}
	if seen[key] {
		zap.L().Warn("table: duplicate region key, keeping first",
			zap.String("key", key),
		)
		return
	}
	seen[key] = true

	rec := &model.Record{
		Key:    key,
		Fields: make(map[string]model.Value, len(header)),
	}
	for i, h := range header {
		if i < len(row) {
			rec.Fields[h] = model.Value{Raw: strings.TrimSpace(row[i])}
		}
	}
	t.Records = append(t.Records, rec)
}

// Record returns the record for a region key, or nil on a join miss.
func (t *Table) Record(key string) *model.Record {
	for _, rec := range t.Records {
		if rec.Key == key {
			return rec
		}
	}
	return nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func rowToStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		out[i] = strings.TrimSpace(c.String())
	}
	return out
}
