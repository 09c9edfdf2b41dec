package table

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sells-group/county-atlas/internal/model"
)

// ratioSeparator marks ratio notation such as "2331:1".
const ratioSeparator = ":"

// Column is the parsed numeric domain of one field: the ascending sample of
// valid values plus the ratio flag detected from the canonical sample value.
type Column struct {
	Field   string
	IsRatio bool
	Sample  []float64
}

// ParseField coerces every record's value for the named field, storing both
// representations on the record, and returns the ascending numeric sample.
// Ratio notation is detected from the first non-empty value; when present,
// every value parses as the numerator before the separator. Values that fail
// coercion stay on the record marked invalid and are excluded from the
// sample.
func ParseField(t *Table, field string) (*Column, error) {
	if columnIndex(t.Headers, field) < 0 {
		return nil, eris.Errorf("table: unknown field %q", field)
	}

	isRatio := detectRatio(t, field)

	col := &Column{Field: field, IsRatio: isRatio}
	var failed int

	for _, rec := range t.Records {
		raw := rec.Fields[field].Raw
		num, ok := coerce(raw, isRatio)
		rec.Fields[field] = model.Value{Raw: raw, Num: num, Valid: ok}

		if ok {
			col.Sample = append(col.Sample, num)
		} else if raw != "" {
			failed++
			zap.L().Debug("table: value failed coercion",
				zap.String("field", field),
				zap.String("key", rec.Key),
				zap.String("raw", raw),
			)
		}
	}

	if failed > 0 {
		zap.L().Warn("table: some values failed coercion",
			zap.String("field", field),
			zap.Int("failed", failed),
		)
	}

	sort.Float64s(col.Sample)
	return col, nil
}

// EligibleFields returns the field names a user may select: headers that are
// not reserved and whose first non-empty value is numeric-coercible.
func EligibleFields(t *Table, reserved []string) []string {
	reservedSet := make(map[string]bool, len(reserved))
	for _, r := range reserved {
		reservedSet[strings.ToLower(r)] = true
	}

	var fields []string
	for _, h := range t.Headers {
		if h == "" || reservedSet[strings.ToLower(h)] || strings.EqualFold(h, t.KeyColumn) {
			continue
		}
		raw := firstNonEmpty(t, h)
		if raw == "" {
			continue
		}
		if _, ok := coerce(raw, strings.Contains(raw, ratioSeparator)); ok {
			fields = append(fields, h)
		}
	}
	return fields
}

// detectRatio inspects the canonical sample value for the ratio separator.
func detectRatio(t *Table, field string) bool {
	return strings.Contains(firstNonEmpty(t, field), ratioSeparator)
}

func firstNonEmpty(t *Table, field string) string {
	for _, rec := range t.Records {
		if raw := rec.Fields[field].Raw; raw != "" {
			return raw
		}
	}
	return ""
}

// coerce parses a raw cell into a float. Ratio values take the numerator
// before the separator; plain values strip comma grouping first.
func coerce(raw string, isRatio bool) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if isRatio {
		s = strings.SplitN(s, ratioSeparator, 2)[0]
	}
	s = strings.ReplaceAll(s, ",", "")

	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return num, true
}

var displayPrinter = message.NewPrinter(language.English)

// FormatValue renders a numeric value for display: comma-grouped digits, and
// ratio fields reproduce the "N:1" notation they were parsed from.
func FormatValue(v float64, isRatio bool) string {
	s := displayPrinter.Sprint(number.Decimal(v))
	if isRatio {
		return s + ":1"
	}
	return s
}
