package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/inventory-sync/modules/inventory/domain"
)

var (
	// ErrStoreUnavailable wraps store failures that abort a run before any
	// file is touched.
	ErrStoreUnavailable = errors.New("inventory store unavailable")

	// ErrEmptyWorkbook means the workbook yielded no records after cleaning.
	// The run ends without archiving; the file stays in intake for manual
	// inspection.
	ErrEmptyWorkbook = errors.New("workbook empty after cleaning")
)

// Run statuses.
const (
	StatusNoInput   = "no_input"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// PipelineConfig carries the filesystem stages and batching knobs explicitly
// so tests can point a service at temp directories.
type PipelineConfig struct {
	IntakeDir       string
	ArchiveDir      string
	ReviewDir       string
	InsertBatchSize int
}

// RunSummary is the JSON-line result of one pipeline pass.
type RunSummary struct {
	RunID           string `json:"run_id"`
	Status          string `json:"status"`
	Workbook        string `json:"workbook,omitempty"`
	ExistingCount   int    `json:"existing_count"`
	IncomingCount   int    `json:"incoming_count"`
	NewCount        int    `json:"new_count"`
	InsertedCount   int    `json:"inserted_count"`
	DroppedIncoming int    `json:"dropped_incoming"`
	DroppedExisting int    `json:"dropped_existing"`
	ReviewArtifact  string `json:"review_artifact,omitempty"`
	ArchivePath     string `json:"archive_path,omitempty"`
}

// ExtractFunc reads one workbook into canonical records.
type ExtractFunc func(path string) ([]domain.Record, error)

// SyncService runs one reconciliation pass: snapshot the store, extract the
// oldest intake workbook, diff by identity key, gate on operator approval,
// commit in batches, archive.
type SyncService struct {
	repo     domain.Repository
	approver Approver
	extract  ExtractFunc
	cfg      PipelineConfig
	log      *logrus.Logger
}

func NewSyncService(
	repo domain.Repository,
	approver Approver,
	extract ExtractFunc,
	cfg PipelineConfig,
	log *logrus.Logger,
) *SyncService {
	return &SyncService{
		repo:     repo,
		approver: approver,
		extract:  extract,
		cfg:      cfg,
		log:      log,
	}
}

func (s *SyncService) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{RunID: uuid.New().String()}

	// Store snapshot comes first: if the store is down the run must abort
	// before any intake file is consumed or moved.
	existingRows, err := s.repo.IdentityRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	existingKeyed, droppedExisting := domain.DeriveKeys(existingRows)
	existing := domain.IdentitySet(existingKeyed)
	summary.ExistingCount = len(existing)
	summary.DroppedExisting = droppedExisting
	if droppedExisting > 0 {
		s.log.WithField("dropped", droppedExisting).Warn("store rows without a derivable identity are invisible to the diff")
	}

	workbook, err := FindOldestWorkbook(s.cfg.IntakeDir)
	if errors.Is(err, ErrNoIntakeFile) {
		summary.Status = StatusNoInput
		s.log.Info("no workbook waiting in intake")
		return summary, nil
	}
	if err != nil {
		return nil, err
	}
	summary.Workbook = workbook
	s.log.WithField("workbook", workbook).Info("processing intake workbook")

	// Extraction failures end the run without archiving so the file stays
	// put for inspection.
	records, err := s.extract(workbook)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		s.log.WithField("workbook", workbook).Warn("workbook yielded no records after cleaning; leaving it in intake")
		return nil, fmt.Errorf("%w: %s", ErrEmptyWorkbook, workbook)
	}

	incoming, droppedIncoming := domain.DeriveKeys(records)
	summary.IncomingCount = len(incoming)
	summary.DroppedIncoming = droppedIncoming
	if droppedIncoming > 0 {
		s.log.WithField("dropped", droppedIncoming).Warn("rows without item code or parseable date were skipped")
	}

	fresh := domain.FilterNew(incoming, existing)
	summary.NewCount = len(fresh)

	if len(fresh) > 0 {
		artifact, err := WriteReviewArtifact(s.cfg.ReviewDir, fresh)
		if err != nil {
			return nil, err
		}
		summary.ReviewArtifact = artifact
		s.log.WithFields(logrus.Fields{
			"new":      len(fresh),
			"artifact": artifact,
		}).Info("new entries written for review")

		approved, err := s.approver.Approve(ctx, fmt.Sprintf("Insert %d new entries? Review %s first", len(fresh), artifact))
		if err != nil {
			return nil, err
		}
		if !approved {
			summary.Status = StatusRejected
			s.log.Info("operator rejected the batch; nothing committed")
			return s.finish(summary, workbook)
		}

		summary.InsertedCount = s.commit(ctx, fresh)
	} else {
		s.log.Info("store already covers every extracted entry")
	}

	summary.Status = StatusCompleted
	return s.finish(summary, workbook)
}

// commit inserts the approved entries batch by batch. A failed batch is
// logged and skipped; the rest still go in.
func (s *SyncService) commit(ctx context.Context, fresh []domain.KeyedRecord) int {
	before, countErr := s.repo.Count(ctx)

	records := make([]domain.Record, len(fresh))
	for i, k := range fresh {
		records[i] = k.Record
	}

	size := s.cfg.InsertBatchSize
	if size <= 0 {
		size = 100
	}

	inserted := 0
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		n, err := s.repo.InsertBatch(ctx, records[start:end])
		inserted += n
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"batch_start": start,
				"batch_size":  end - start,
			}).Error("batch insert failed; continuing with remaining batches")
		}
	}

	if countErr == nil {
		after, err := s.repo.Count(ctx)
		if err == nil && after != before+int64(inserted) {
			s.log.WithFields(logrus.Fields{
				"before":   before,
				"after":    after,
				"inserted": inserted,
			}).Warn("post-commit row count does not match inserted total")
		}
	}
	return inserted
}

// finish archives the workbook of a completed pass. Every path that fully
// processed the file archives it, including empty diffs and rejections.
func (s *SyncService) finish(summary *RunSummary, workbook string) (*RunSummary, error) {
	dest, err := ArchiveFile(workbook, s.cfg.ArchiveDir)
	if err != nil {
		return nil, err
	}
	summary.ArchivePath = dest
	if dest != "" {
		s.log.WithField("archived", dest).Info("workbook archived")
	}
	return summary, nil
}
