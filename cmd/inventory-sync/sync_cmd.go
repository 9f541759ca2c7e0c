package main

import (
	"github.com/spf13/cobra"

	"github.com/iota-uz/inventory-sync/modules/inventory/infrastructure/excel"
	"github.com/iota-uz/inventory-sync/modules/inventory/infrastructure/persistence"
	"github.com/iota-uz/inventory-sync/modules/inventory/services"
	"github.com/iota-uz/inventory-sync/pkg/configuration"
)

type syncOptions struct {
	intakeDir  string
	archiveDir string
	reviewDir  string
	batchSize  int
	yes        bool
}

func newSyncCmd() *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the oldest intake workbook against the inventory store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.intakeDir, "intake", "", "Intake directory (default from env)")
	cmd.Flags().StringVar(&opts.archiveDir, "archive", "", "Archive directory (default from env)")
	cmd.Flags().StringVar(&opts.reviewDir, "review", "", "Review artifact directory (default from env)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Insert batch size (default from env)")
	cmd.Flags().BoolVar(&opts.yes, "yes", false, "Approve new entries without prompting")

	return cmd
}

func runSync(cmd *cobra.Command, opts syncOptions) error {
	conf := configuration.Use()
	log := conf.Logger()

	cfg := services.PipelineConfig{
		IntakeDir:       conf.Pipeline.IntakeDir,
		ArchiveDir:      conf.Pipeline.ArchiveDir,
		ReviewDir:       conf.Pipeline.ReviewDir,
		InsertBatchSize: conf.Pipeline.InsertBatchSize,
	}
	if opts.intakeDir != "" {
		cfg.IntakeDir = opts.intakeDir
	}
	if opts.archiveDir != "" {
		cfg.ArchiveDir = opts.archiveDir
	}
	if opts.reviewDir != "" {
		cfg.ReviewDir = opts.reviewDir
	}
	if opts.batchSize > 0 {
		cfg.InsertBatchSize = opts.batchSize
	}

	if err := services.EnsureDirs(cfg.IntakeDir, cfg.ArchiveDir, cfg.ReviewDir); err != nil {
		return withCode(exitUsage, err)
	}

	ctx := cmd.Context()
	pool, err := openPool(ctx, conf)
	if err != nil {
		return err
	}
	defer pool.Close()

	var approver services.Approver = services.NewStdinApprover()
	if opts.yes {
		approver = services.AutoApprover{}
	}

	svc := services.NewSyncService(
		persistence.NewInventoryRepository(pool),
		approver,
		excel.ExtractWorkbook,
		cfg,
		log,
	)

	summary, err := svc.Run(ctx)
	if err != nil {
		switch {
		case is(err, excel.ErrWorkbookMalformed), is(err, services.ErrEmptyWorkbook):
			return withCode(exitValidation, err)
		case is(err, services.ErrStoreUnavailable):
			return withCode(exitDB, err)
		default:
			return err
		}
	}
	return writeJSONLine(summary)
}
