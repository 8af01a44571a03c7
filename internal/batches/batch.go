// Package batches records processed uploads and the per-page delivery
// records behind them. This is the durable trail: sessions vanish on
// restart, batches and records do not.
package batches

import (
	"time"

	"github.com/google/uuid"
)

// Batch statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Delivery statuses for a record.
const (
	DeliveryNotSent = "not_sent"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
)

// Batch is one processed upload.
type Batch struct {
	ID               uuid.UUID `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	PageCount        int       `json:"page_count"`
	ExtractionMethod string    `json:"extraction_method"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// Record is one employee payslip within a batch: who it was for, where
// the encrypted artifact lives, and how delivery went.
type Record struct {
	ID             uuid.UUID  `json:"id"`
	BatchID        uuid.UUID  `json:"batch_id"`
	EmployeeID     *uuid.UUID `json:"employee_id,omitempty"`
	NationalID     string     `json:"national_id,omitempty"`
	EmployeeName   string     `json:"employee_name,omitempty"`
	EmployeeEmail  string     `json:"employee_email,omitempty"`
	Month          int        `json:"month,omitempty"`
	Year           int        `json:"year,omitempty"`
	PageIndex      int        `json:"page_index"`
	OutputFilename string     `json:"output_filename,omitempty"`
	ArtifactPath   string     `json:"artifact_path,omitempty"`
	DeliveryStatus string     `json:"delivery_status"`
	DeliveryError  string     `json:"delivery_error,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// HistoryEntry is a record joined with its batch for the history view.
type HistoryEntry struct {
	Record
	BatchFilename string    `json:"batch_filename"`
	BatchDate     time.Time `json:"batch_date"`
}

// CreateRecord carries the fields for a new delivery record.
type CreateRecord struct {
	BatchID       uuid.UUID
	EmployeeID    *uuid.UUID
	NationalID    string
	EmployeeName  string
	EmployeeEmail string
	Month         int
	Year          int
	PageIndex     int
}
