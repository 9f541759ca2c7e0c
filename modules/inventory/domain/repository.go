package domain

import "context"

// storeColumns maps display column names to persisted column names. The
// workbook side and the store side use different spellings; this table is
// the single bridge between them.
var storeColumns = map[string]string{
	ColStencil:     "stencil",
	ColOrientation: "orientation",
	ColInvoice:     "invoice_number",
	ColConeSize:    "cone_size",
	ColLineCount:   "number_of_lines",
	ColMiscInfo:    "misc_info",
	ColDate:        "date_of_inventory",
	ColSilkscreen:  "silkscreen",
}

// StoreColumn returns the persisted column name for a display column.
func StoreColumn(display string) string {
	return storeColumns[display]
}

// Repository is the minimal store contract the pipeline depends on.
type Repository interface {
	// IdentityRows returns the persisted rows projected onto the columns
	// needed to rebuild identity keys (stencil, silkscreen, inventory date),
	// renamed back to display columns so DeriveKeys applies unchanged.
	IdentityRows(ctx context.Context) ([]Record, error)

	// InsertBatch persists one batch of records and returns the number of
	// rows actually written.
	InsertBatch(ctx context.Context, records []Record) (int, error)

	// Count returns the store's current row count, used for post-commit
	// sanity checks.
	Count(ctx context.Context) (int64, error)
}
