package batches

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for batch and record operations.
type System interface {
	Handler() *Handler

	CreateBatch(ctx context.Context, originalFilename, method string, pageCount int) (*Batch, error)
	SetBatchStatus(ctx context.Context, id uuid.UUID, status string) error
	FindBatch(ctx context.Context, id uuid.UUID) (*Batch, error)
	ListBatches(ctx context.Context) ([]Batch, error)

	CreateRecord(ctx context.Context, cmd CreateRecord) (*Record, error)
	FindRecord(ctx context.Context, id uuid.UUID) (*Record, error)
	RecordsForBatch(ctx context.Context, batchID uuid.UUID) ([]Record, error)
	SetRecordArtifact(ctx context.Context, id uuid.UUID, filename, path string) error
	SetRecordDelivery(ctx context.Context, id uuid.UUID, sent bool, deliveryErr string) error

	History(ctx context.Context, limit int) ([]HistoryEntry, error)

	// AlreadyDelivered reports whether a payslip for this employee and
	// period has already been sent successfully.
	AlreadyDelivered(ctx context.Context, nationalID string, month, year int) (bool, error)
}
