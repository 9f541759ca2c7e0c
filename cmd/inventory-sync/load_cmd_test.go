package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/inventory-sync/modules/inventory/domain"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadInventoryCSV(t *testing.T) {
	path := writeCSV(t, "\xEF\xBB\xBFstencils,DATE,INVOICE #\nA100,2024-01-05,INV-1\n,,\nB200,2024-01-06,\n")

	records, err := readInventoryCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 2, "all-empty row dropped")

	require.Equal(t, "A100", records[0][domain.ColStencil], "BOM and header alias handled")
	require.Equal(t, "INV-1", records[0][domain.ColInvoice])
	require.Equal(t, "", records[1][domain.ColInvoice])
	require.Len(t, records[0], len(domain.Columns()))
}

func TestReadInventoryCSV_MissingRequiredHeader(t *testing.T) {
	path := writeCSV(t, "STENCIL,INVOICE #\nA100,INV-1\n")

	_, err := readInventoryCSV(path)
	require.ErrorContains(t, err, "missing required header column: DATE")
}

func TestReadInventoryCSV_UnexpectedHeader(t *testing.T) {
	path := writeCSV(t, "STENCIL,DATE,WAREHOUSE\nA100,2024-01-05,W1\n")

	_, err := readInventoryCSV(path)
	require.ErrorContains(t, err, "unexpected header column: WAREHOUSE")
}
