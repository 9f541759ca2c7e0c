package domain

import "strings"

// Display column names of the target schema, in output order. Sheets are
// unioned by name, so a run whose sheets omit a column still produces every
// key below on every record.
const (
	ColStencil     = "STENCIL"
	ColOrientation = "ORIENTATION"
	ColInvoice     = "INVOICE #"
	ColConeSize    = "CONE SIZE"
	ColLineCount   = "# OF LINES"
	ColMiscInfo    = "MISC. INFO"
	ColDate        = "DATE"
	ColSilkscreen  = "SILKSCREEN"
)

var targetColumns = []string{
	ColStencil,
	ColOrientation,
	ColInvoice,
	ColConeSize,
	ColLineCount,
	ColMiscInfo,
	ColDate,
	ColSilkscreen,
}

// headerAliases maps alternate spellings seen in the wild to canonical
// headers. Applied after uppercasing and trimming.
var headerAliases = map[string]string{
	"STENCILS": ColStencil,
}

// Columns returns the fixed target schema in output order.
func Columns() []string {
	out := make([]string, len(targetColumns))
	copy(out, targetColumns)
	return out
}

// Row is a raw extracted row: column name to cell text. The empty string is
// the absent-value marker.
type Row map[string]string

// Record is a Row projected onto the target schema: every column of
// Columns() is present, absent values hold "".
type Record map[string]string

// NormalizeHeader canonicalizes a sheet header: uppercase, trimmed, alias
// spellings rewritten.
func NormalizeHeader(h string) string {
	h = strings.ToUpper(strings.TrimSpace(h))
	if canonical, ok := headerAliases[h]; ok {
		return canonical
	}
	return h
}

// IsEmpty reports whether every cell of the row is absent.
func (r Row) IsEmpty() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Project unions raw rows onto the target schema. Columns outside the schema
// are discarded; schema columns missing from a row are filled with "".
func Project(rows []Row) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, len(targetColumns))
		for _, col := range targetColumns {
			rec[col] = row[col]
		}
		records = append(records, rec)
	}
	return records
}

// NewRecord returns an all-absent record. Callers fill in known columns.
func NewRecord() Record {
	rec := make(Record, len(targetColumns))
	for _, col := range targetColumns {
		rec[col] = ""
	}
	return rec
}
