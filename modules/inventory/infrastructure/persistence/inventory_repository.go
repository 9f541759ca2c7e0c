package persistence

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/inventory-sync/modules/inventory/domain"
)

const countInventoryQuery = `SELECT COUNT(*) FROM inventory`

// insertColumns fixes the display-column order matching insertInventoryQuery's
// placeholders.
var insertColumns = []string{
	domain.ColStencil,
	domain.ColOrientation,
	domain.ColInvoice,
	domain.ColConeSize,
	domain.ColLineCount,
	domain.ColMiscInfo,
	domain.ColDate,
	domain.ColSilkscreen,
}

// Queries are built through domain.StoreColumn so the display→persisted
// rename lives in exactly one table.
var (
	selectIdentityRowsQuery = "SELECT " + strings.Join(persistedNames(
		domain.ColStencil,
		domain.ColSilkscreen,
		domain.ColDate,
	), ", ") + " FROM inventory"

	insertInventoryQuery = "INSERT INTO inventory (" +
		strings.Join(persistedNames(insertColumns...), ", ") +
		") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"
)

func persistedNames(display ...string) []string {
	out := make([]string, len(display))
	for i, col := range display {
		out[i] = domain.StoreColumn(col)
	}
	return out
}

type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) IdentityRows(ctx context.Context) ([]domain.Record, error) {
	rows, err := r.pool.Query(ctx, selectIdentityRowsQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query identity rows")
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var (
			stencil    pgtype.Text
			silkscreen pgtype.Text
			date       pgtype.Date
		)
		if err := rows.Scan(&stencil, &silkscreen, &date); err != nil {
			return nil, errors.Wrap(err, "failed to scan identity row")
		}
		rec := domain.NewRecord()
		rec[domain.ColStencil] = stencil.String
		rec[domain.ColSilkscreen] = silkscreen.String
		if date.Valid {
			rec[domain.ColDate] = date.Time.Format("2006-01-02")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate identity rows")
	}
	return out, nil
}

func (r *InventoryRepository) InsertBatch(ctx context.Context, records []domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insertInventoryQuery, insertArgs(rec)...)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	inserted := 0
	for range records {
		tag, err := results.Exec()
		if err != nil {
			return inserted, errors.Wrap(err, "failed to insert inventory row")
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *InventoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, countInventoryQuery).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count inventory rows")
	}
	return count, nil
}

// insertArgs converts one record into placeholder arguments: values are
// trimmed, empty cells become NULL, and the inventory date is persisted as a
// DATE. The original cell text is what gets stored; only identity keys
// normalize further.
func insertArgs(rec domain.Record) []any {
	args := make([]any, 0, len(insertColumns))
	for _, col := range insertColumns {
		v := strings.TrimSpace(rec[col])
		if v == "" {
			args = append(args, nil)
			continue
		}
		if col == domain.ColDate {
			if t, ok := domain.ParseInventoryDate(v); ok {
				args = append(args, pgtype.Date{Time: t, Valid: true})
				continue
			}
			args = append(args, nil)
			continue
		}
		args = append(args, v)
	}
	return args
}
