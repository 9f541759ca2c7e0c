package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/inventory-sync/modules/inventory/domain"
)

type fakeRepo struct {
	rows      []domain.Record
	rowsErr   error
	failBatch int // 1-based index of the batch that errors, 0 = none
	batches   [][]domain.Record
	count     int64
}

func (f *fakeRepo) IdentityRows(context.Context) ([]domain.Record, error) {
	return f.rows, f.rowsErr
}

func (f *fakeRepo) InsertBatch(_ context.Context, records []domain.Record) (int, error) {
	f.batches = append(f.batches, records)
	if f.failBatch == len(f.batches) {
		return 0, errors.New("deadlock detected")
	}
	f.count += int64(len(records))
	return len(records), nil
}

func (f *fakeRepo) Count(context.Context) (int64, error) {
	return f.count, nil
}

type fixedApprover struct {
	decision bool
	asked    bool
}

func (a *fixedApprover) Approve(context.Context, string) (bool, error) {
	a.asked = true
	return a.decision, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func storeRow(code, date string) domain.Record {
	rec := domain.NewRecord()
	rec[domain.ColStencil] = code
	rec[domain.ColDate] = date
	return rec
}

func newService(t *testing.T, repo domain.Repository, approver Approver, extract ExtractFunc) (*SyncService, PipelineConfig) {
	t.Helper()
	base := t.TempDir()
	cfg := PipelineConfig{
		IntakeDir:       filepath.Join(base, "intake"),
		ArchiveDir:      filepath.Join(base, "archive"),
		ReviewDir:       filepath.Join(base, "review"),
		InsertBatchSize: 2,
	}
	require.NoError(t, EnsureDirs(cfg.IntakeDir, cfg.ArchiveDir, cfg.ReviewDir))
	return NewSyncService(repo, approver, extract, cfg, quietLogger()), cfg
}

func placeWorkbook(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("xlsx"), 0o644))
	return path
}

func TestRun_NoIntakeFile(t *testing.T) {
	svc, _ := newService(t, &fakeRepo{}, &fixedApprover{}, nil)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusNoInput, summary.Status)
	require.Empty(t, summary.ArchivePath)
}

func TestRun_StoreDownAbortsBeforeIntake(t *testing.T) {
	repo := &fakeRepo{rowsErr: errors.New("connection refused")}
	svc, cfg := newService(t, repo, &fixedApprover{}, nil)
	path := placeWorkbook(t, cfg.IntakeDir, "stock.xlsx")

	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, ErrStoreUnavailable)

	// the workbook must still be waiting for the next run
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestRun_MalformedWorkbookIsNotArchived(t *testing.T) {
	extractErr := errors.New("zip: not a valid zip file")
	svc, cfg := newService(t, &fakeRepo{}, &fixedApprover{}, func(string) ([]domain.Record, error) {
		return nil, extractErr
	})
	path := placeWorkbook(t, cfg.IntakeDir, "stock.xlsx")

	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, extractErr)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestRun_EmptyWorkbookIsNotArchived(t *testing.T) {
	approver := &fixedApprover{decision: true}
	svc, cfg := newService(t, &fakeRepo{}, approver, func(string) ([]domain.Record, error) {
		return nil, nil
	})
	path := placeWorkbook(t, cfg.IntakeDir, "stock.xlsx")

	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, ErrEmptyWorkbook)
	require.False(t, approver.asked)

	// the file stays in intake for manual inspection
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
	archived, readErr := os.ReadDir(cfg.ArchiveDir)
	require.NoError(t, readErr)
	require.Empty(t, archived)
}

func TestRun_EmptyDiffStillArchives(t *testing.T) {
	repo := &fakeRepo{rows: []domain.Record{storeRow("A100", "2024-01-05")}}
	approver := &fixedApprover{decision: true}
	svc, cfg := newService(t, repo, approver, func(string) ([]domain.Record, error) {
		return []domain.Record{storeRow(" a100 ", "2024-01-05")}, nil
	})
	path := placeWorkbook(t, cfg.IntakeDir, "stock.xlsx")

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, summary.Status)
	require.Zero(t, summary.NewCount)
	require.Zero(t, summary.InsertedCount)
	require.False(t, approver.asked, "empty diff must not prompt")
	require.Empty(t, summary.ReviewArtifact)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "workbook should have moved to archive")
	require.NotEmpty(t, summary.ArchivePath)
}

func TestRun_ApprovedEntriesAreCommittedInBatches(t *testing.T) {
	repo := &fakeRepo{rows: []domain.Record{storeRow("OLD", "2024-01-01")}}
	svc, cfg := newService(t, repo, &fixedApprover{decision: true}, func(string) ([]domain.Record, error) {
		return []domain.Record{
			storeRow("N1", "2024-01-05"),
			storeRow("N2", "2024-01-05"),
			storeRow("N3", "2024-01-05"),
			storeRow("OLD", "2024-01-01"),
		}, nil
	})
	placeWorkbook(t, cfg.IntakeDir, "stock.xlsx")

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, summary.Status)
	require.Equal(t, 4, summary.IncomingCount)
	require.Equal(t, 3, summary.NewCount)
	require.Equal(t, 3, summary.InsertedCount)
	require.Len(t, repo.batches, 2, "batch size 2 splits 3 rows into 2 batches")
	require.FileExists(t, summary.ReviewArtifact)
}

func TestRun_RejectionCommitsNothingButArchives(t *testing.T) {
	repo := &fakeRepo{}
	svc, cfg := newService(t, repo, &fixedApprover{decision: false}, func(string) ([]domain.Record, error) {
		return []domain.Record{storeRow("N1", "2024-01-05")}, nil
	})
	placeWorkbook(t, cfg.IntakeDir, "stock.xlsx")

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusRejected, summary.Status)
	require.Zero(t, summary.InsertedCount)
	require.Empty(t, repo.batches)
	require.NotEmpty(t, summary.ArchivePath)
}

func TestRun_FailedBatchDoesNotStopTheRest(t *testing.T) {
	repo := &fakeRepo{failBatch: 1}
	svc, cfg := newService(t, repo, &fixedApprover{decision: true}, func(string) ([]domain.Record, error) {
		return []domain.Record{
			storeRow("N1", "2024-01-05"),
			storeRow("N2", "2024-01-05"),
			storeRow("N3", "2024-01-05"),
		}, nil
	})
	placeWorkbook(t, cfg.IntakeDir, "stock.xlsx")

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, summary.Status)
	require.Equal(t, 1, summary.InsertedCount, "only the surviving batch counts")
	require.Len(t, repo.batches, 2)
}

func TestFindOldestWorkbook_PicksOldestByModTime(t *testing.T) {
	dir := t.TempDir()
	older := placeWorkbook(t, dir, "first.xlsx")
	newer := placeWorkbook(t, dir, "second.xls")
	placeWorkbook(t, dir, "ignored.txt")

	now := time.Now()
	require.NoError(t, os.Chtimes(older, now.Add(-2*time.Hour), now.Add(-2*time.Hour)))
	require.NoError(t, os.Chtimes(newer, now, now))

	got, err := FindOldestWorkbook(dir)
	require.NoError(t, err)
	require.Equal(t, older, got)
}

func TestFindOldestWorkbook_EmptyDir(t *testing.T) {
	_, err := FindOldestWorkbook(t.TempDir())
	require.ErrorIs(t, err, ErrNoIntakeFile)
}

func TestArchiveFile_NoOpWhenSourceVanished(t *testing.T) {
	dest, err := ArchiveFile(filepath.Join(t.TempDir(), "gone.xlsx"), t.TempDir())
	require.NoError(t, err)
	require.Empty(t, dest)
}
