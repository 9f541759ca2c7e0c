package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iota-uz/inventory-sync/modules/inventory/domain"
	"github.com/iota-uz/inventory-sync/modules/inventory/infrastructure/persistence"
	"github.com/iota-uz/inventory-sync/pkg/configuration"
)

type loadOptions struct {
	input     string
	batchSize int
}

type loadSummary struct {
	Input         string `json:"input"`
	RowCount      int    `json:"row_count"`
	InsertedCount int    `json:"inserted_count"`
}

func newLoadCmd() *cobra.Command {
	var opts loadOptions

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Seed the inventory store from a CSV export (no diffing)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "Input CSV with workbook-style headers (required)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Insert batch size (default from env)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runLoad(cmd *cobra.Command, opts loadOptions) error {
	conf := configuration.Use()
	log := conf.Logger()

	records, err := readInventoryCSV(opts.input)
	if err != nil {
		return withCode(exitValidation, fmt.Errorf("read %s: %w", opts.input, err))
	}
	if len(records) == 0 {
		return writeJSONLine(loadSummary{Input: opts.input})
	}

	ctx := cmd.Context()
	pool, err := openPool(ctx, conf)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := persistence.NewInventoryRepository(pool)

	size := opts.batchSize
	if size <= 0 {
		size = conf.Pipeline.InsertBatchSize
	}

	// Seeding is all-or-stop: a failed batch aborts instead of skipping, so a
	// partial first load never masquerades as a complete one.
	inserted := 0
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		n, err := repo.InsertBatch(ctx, records[start:end])
		inserted += n
		if err != nil {
			return withCode(exitDB, fmt.Errorf("insert batch at row %d: %w", start, err))
		}
		log.WithField("inserted", inserted).Info("seed batch committed")
	}

	return writeJSONLine(loadSummary{
		Input:         opts.input,
		RowCount:      len(records),
		InsertedCount: inserted,
	})
}

func readInventoryCSV(path string) ([]domain.Record, error) {
	r, closeFn, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeFn() }()

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if err := requireHeader(header, []string{domain.ColStencil, domain.ColDate}, domain.Columns()); err != nil {
		return nil, err
	}

	var rows []domain.Row
	for {
		line, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(domain.Row, len(header))
		for i, name := range header {
			if i >= len(line) {
				continue
			}
			row[name] = line[i]
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return domain.Project(rows), nil
}
