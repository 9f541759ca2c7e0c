package excel

import (
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/inventory-sync/modules/inventory/domain"
)

var (
	// ErrWorkbookNotFound reports a missing input artifact, as opposed to one
	// that exists but cannot be read.
	ErrWorkbookNotFound = errors.New("workbook not found")
	// ErrWorkbookMalformed reports an unreadable or corrupt workbook.
	ErrWorkbookMalformed = errors.New("workbook malformed")
)

// ExtractWorkbook reads every data sheet of the workbook at path and returns
// the union of their rows projected onto the target schema.
//
// The first sheet is always skipped: it holds cover/instruction content, not
// records. A workbook with a single sheet therefore yields an empty result,
// not an error. Headers are uppercased, trimmed and de-aliased; rows whose
// cells are all empty are dropped; sheets are unioned by column name, never
// by position.
func ExtractWorkbook(path string) ([]domain.Record, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrWorkbookMalformed, path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrWorkbookMalformed, path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) <= 1 {
		return nil, nil
	}

	var union []domain.Row
	for _, sheet := range sheets[1:] {
		rows, err := extractSheet(f, sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrWorkbookMalformed, sheet, err)
		}
		union = append(union, rows...)
	}

	if len(union) == 0 {
		return nil, nil
	}
	return domain.Project(union), nil
}

func extractSheet(f *excelize.File, sheet string) ([]domain.Row, error) {
	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(cells) < 2 {
		return nil, nil
	}

	header := make([]string, len(cells[0]))
	for i, h := range cells[0] {
		header[i] = domain.NormalizeHeader(h)
	}

	var rows []domain.Row
	for _, line := range cells[1:] {
		row := make(domain.Row, len(header))
		for i, name := range header {
			if name == "" || i >= len(line) {
				continue
			}
			row[name] = line[i]
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
