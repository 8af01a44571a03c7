package batches

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oharel/talush/pkg/repository"
)

const defaultHistoryLimit = 100

type repo struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// New creates a batch repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "batches"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) CreateBatch(ctx context.Context, originalFilename, method string, pageCount int) (*Batch, error) {
	q := `
		INSERT INTO batches (id, original_filename, page_count, extraction_method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + batchColumns

	b, err := repository.QueryOne(ctx, r.db, q,
		[]any{uuid.New(), originalFilename, pageCount, method, StatusProcessing, r.now()},
		scanBatch)
	if err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	r.logger.Info("batch created",
		"batch", b.ID,
		"filename", originalFilename,
		"pages", pageCount,
		"method", method)
	return &b, nil
}

func (r *repo) SetBatchStatus(ctx context.Context, id uuid.UUID, status string) error {
	q := `UPDATE batches SET status = $1 WHERE id = $2`

	if err := repository.ExecExpectOne(ctx, r.db, q, status, id.String()); err != nil {
		return fmt.Errorf("set batch status: %w", repository.MapError(err, ErrBatchNotFound, ErrDuplicate))
	}
	return nil
}

func (r *repo) FindBatch(ctx context.Context, id uuid.UUID) (*Batch, error) {
	q := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1`

	b, err := repository.QueryOne(ctx, r.db, q, []any{id.String()}, scanBatch)
	if err != nil {
		return nil, repository.MapError(err, ErrBatchNotFound, ErrDuplicate)
	}
	return &b, nil
}

func (r *repo) ListBatches(ctx context.Context) ([]Batch, error) {
	q := `SELECT ` + batchColumns + ` FROM batches ORDER BY created_at DESC`

	list, err := repository.QueryMany(ctx, r.db, q, nil, scanBatch)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return list, nil
}

func (r *repo) CreateRecord(ctx context.Context, cmd CreateRecord) (*Record, error) {
	q := `
		INSERT INTO delivery_records (
			id, batch_id, employee_id, national_id, employee_name, employee_email,
			period_month, period_year, page_index, delivery_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + recordColumns

	var employeeID any
	if cmd.EmployeeID != nil {
		employeeID = cmd.EmployeeID.String()
	}

	rec, err := repository.QueryOne(ctx, r.db, q,
		[]any{
			uuid.New(),
			cmd.BatchID.String(),
			employeeID,
			nullable(cmd.NationalID),
			nullable(cmd.EmployeeName),
			nullable(cmd.EmployeeEmail),
			nullableInt(cmd.Month),
			nullableInt(cmd.Year),
			cmd.PageIndex,
			DeliveryNotSent,
			r.now(),
		},
		scanRecord)
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return &rec, nil
}

func (r *repo) FindRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	q := `SELECT ` + recordColumns + ` FROM delivery_records WHERE id = $1`

	rec, err := repository.QueryOne(ctx, r.db, q, []any{id.String()}, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}

func (r *repo) RecordsForBatch(ctx context.Context, batchID uuid.UUID) ([]Record, error) {
	q := `SELECT ` + recordColumns + ` FROM delivery_records WHERE batch_id = $1 ORDER BY page_index`

	list, err := repository.QueryMany(ctx, r.db, q, []any{batchID.String()}, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("records for batch: %w", err)
	}
	return list, nil
}

func (r *repo) SetRecordArtifact(ctx context.Context, id uuid.UUID, filename, path string) error {
	q := `UPDATE delivery_records SET output_filename = $1, artifact_path = $2 WHERE id = $3`

	if err := repository.ExecExpectOne(ctx, r.db, q, filename, path, id.String()); err != nil {
		return fmt.Errorf("set record artifact: %w", repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return nil
}

func (r *repo) SetRecordDelivery(ctx context.Context, id uuid.UUID, sent bool, deliveryErr string) error {
	status := DeliveryFailed
	var sentAt any
	if sent {
		status = DeliverySent
		sentAt = r.now()
	}

	q := `UPDATE delivery_records SET delivery_status = $1, sent_at = $2, delivery_error = $3 WHERE id = $4`

	if err := repository.ExecExpectOne(ctx, r.db, q, status, sentAt, nullable(deliveryErr), id.String()); err != nil {
		return fmt.Errorf("set record delivery: %w", repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return nil
}

func (r *repo) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	q := `
		SELECT ` + historyRecordColumns + `, b.original_filename, b.created_at
		FROM delivery_records r
		JOIN batches b ON r.batch_id = b.id
		ORDER BY r.created_at DESC, r.page_index DESC
		LIMIT $1`

	list, err := repository.QueryMany(ctx, r.db, q, []any{limit}, scanHistoryEntry)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return list, nil
}

func (r *repo) AlreadyDelivered(ctx context.Context, nationalID string, month, year int) (bool, error) {
	if nationalID == "" || month == 0 || year == 0 {
		return false, nil
	}

	q := `
		SELECT COUNT(1) FROM delivery_records
		WHERE national_id = $1 AND period_month = $2 AND period_year = $3 AND delivery_status = $4`

	var count int
	if err := r.db.QueryRowContext(ctx, q, nationalID, month, year, DeliverySent).Scan(&count); err != nil {
		return false, fmt.Errorf("already delivered: %w", err)
	}
	return count > 0, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
