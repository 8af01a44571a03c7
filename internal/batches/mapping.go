package batches

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/oharel/talush/pkg/repository"
)

const batchColumns = "id, original_filename, page_count, extraction_method, status, created_at"

const recordColumns = `id, batch_id, employee_id, national_id, employee_name, employee_email,
	period_month, period_year, page_index, output_filename, artifact_path,
	delivery_status, delivery_error, sent_at, created_at`

const historyRecordColumns = `r.id, r.batch_id, r.employee_id, r.national_id, r.employee_name,
	r.employee_email, r.period_month, r.period_year, r.page_index, r.output_filename,
	r.artifact_path, r.delivery_status, r.delivery_error, r.sent_at, r.created_at`

func scanBatch(s repository.Scanner) (Batch, error) {
	var b Batch
	if err := s.Scan(
		&b.ID,
		&b.OriginalFilename,
		&b.PageCount,
		&b.ExtractionMethod,
		&b.Status,
		&b.CreatedAt,
	); err != nil {
		return Batch{}, err
	}
	return b, nil
}

type recordRow struct {
	employeeID     sql.NullString
	nationalID     sql.NullString
	employeeName   sql.NullString
	employeeEmail  sql.NullString
	month          sql.NullInt64
	year           sql.NullInt64
	outputFilename sql.NullString
	artifactPath   sql.NullString
	deliveryError  sql.NullString
	sentAt         sql.NullTime
}

func (row *recordRow) apply(r *Record) error {
	if row.employeeID.Valid {
		id, err := uuid.Parse(row.employeeID.String)
		if err != nil {
			return err
		}
		r.EmployeeID = &id
	}
	r.NationalID = row.nationalID.String
	r.EmployeeName = row.employeeName.String
	r.EmployeeEmail = row.employeeEmail.String
	r.Month = int(row.month.Int64)
	r.Year = int(row.year.Int64)
	r.OutputFilename = row.outputFilename.String
	r.ArtifactPath = row.artifactPath.String
	r.DeliveryError = row.deliveryError.String
	if row.sentAt.Valid {
		t := row.sentAt.Time
		r.SentAt = &t
	}
	return nil
}

func scanRecord(s repository.Scanner) (Record, error) {
	var (
		r   Record
		row recordRow
	)
	if err := s.Scan(
		&r.ID,
		&r.BatchID,
		&row.employeeID,
		&row.nationalID,
		&row.employeeName,
		&row.employeeEmail,
		&row.month,
		&row.year,
		&r.PageIndex,
		&row.outputFilename,
		&row.artifactPath,
		&r.DeliveryStatus,
		&row.deliveryError,
		&row.sentAt,
		&r.CreatedAt,
	); err != nil {
		return Record{}, err
	}
	if err := row.apply(&r); err != nil {
		return Record{}, err
	}
	return r, nil
}

func scanHistoryEntry(s repository.Scanner) (HistoryEntry, error) {
	var (
		e   HistoryEntry
		row recordRow
	)
	if err := s.Scan(
		&e.ID,
		&e.BatchID,
		&row.employeeID,
		&row.nationalID,
		&row.employeeName,
		&row.employeeEmail,
		&row.month,
		&row.year,
		&e.PageIndex,
		&row.outputFilename,
		&row.artifactPath,
		&e.DeliveryStatus,
		&row.deliveryError,
		&row.sentAt,
		&e.CreatedAt,
		&e.BatchFilename,
		&e.BatchDate,
	); err != nil {
		return HistoryEntry{}, err
	}
	if err := row.apply(&e.Record); err != nil {
		return HistoryEntry{}, err
	}
	return e, nil
}
