package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/oharel/talush/internal/batches"
	"github.com/oharel/talush/internal/delivery"
	"github.com/oharel/talush/internal/extraction"
	"github.com/oharel/talush/internal/payslips"
	"github.com/oharel/talush/internal/session"
)

// ProcessResult summarizes one processed batch.
type ProcessResult struct {
	BatchID uuid.UUID          `json:"batch_id"`
	Total   int                `json:"total"`
	Sent    int                `json:"sent"`
	Failed  int                `json:"failed"`
	Skipped int                `json:"skipped,omitempty"`
	Details []delivery.Outcome `json:"details"`
}

// Process folds reviewer overrides into a session, validates every page,
// then splits, encrypts, delivers and records the batch. The session is
// consumed on success.
func (s *System) Process(ctx context.Context, sessionID string, overrides extraction.Overrides) (*ProcessResult, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	overrides.Apply(sess.Slips)

	if messages := validate(sess.Slips); len(messages) > 0 {
		return nil, &ValidationError{Messages: messages}
	}

	result, err := s.processSession(ctx, sess)
	if err != nil {
		return nil, err
	}

	s.sessions.Delete(sessionID)
	return result, nil
}

// Run is the one-shot path: extract, split, deliver and record in a
// single call without a review step. Incomplete pages are processed
// as-is instead of blocking the batch.
func (s *System) Run(ctx context.Context, cmd UploadCommand, overrides extraction.Overrides) (*ProcessResult, error) {
	if len(cmd.Data) == 0 || cmd.Filename == "" {
		return nil, ErrEmptyUpload
	}
	if !isPDF(cmd.Filename) {
		return nil, ErrInvalidUpload
	}

	sess, err := s.openSession(ctx, cmd)
	if err != nil {
		return nil, err
	}

	overrides.Apply(sess.Slips)

	result, err := s.processSession(ctx, sess)
	if err != nil {
		s.sessions.Delete(sess.ID)
		return nil, err
	}

	s.sessions.Delete(sess.ID)
	return result, nil
}

// processSession runs the shared back half: batch row, employee upserts,
// delivery records, split, dispatch, record updates, batch status.
func (s *System) processSession(ctx context.Context, sess *session.Session) (*ProcessResult, error) {
	batch, err := s.batches.CreateBatch(ctx, sess.OriginalFilename, sess.Method, sess.PageCount)
	if err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	records := make(map[int]uuid.UUID, len(sess.Slips))
	for _, slip := range sess.Slips {
		var employeeID *uuid.UUID
		if slip.IsComplete() {
			e, err := s.employees.Upsert(ctx, slip.NationalID, slip.Name, slip.Email)
			if err != nil {
				s.logger.Warn("employee upsert failed",
					"page", slip.PageIndex+1,
					"national_id", slip.NationalID,
					"error", err)
			} else {
				employeeID = &e.ID
			}
		}

		record, err := s.batches.CreateRecord(ctx, batches.CreateRecord{
			BatchID:       batch.ID,
			EmployeeID:    employeeID,
			NationalID:    slip.NationalID,
			EmployeeName:  slip.Name,
			EmployeeEmail: slip.Email,
			Month:         slip.Month,
			Year:          slip.Year,
			PageIndex:     slip.PageIndex,
		})
		if err != nil {
			return nil, fmt.Errorf("create delivery record: %w", err)
		}
		records[slip.PageIndex] = record.ID
	}

	outputDir := filepath.Join(s.pipeline.OutputDir, batch.ID.String())
	output, err := s.splitter.Split(ctx, sess.PDFPath, outputDir, sess.Slips)
	if err != nil {
		if serr := s.batches.SetBatchStatus(ctx, batch.ID, batches.StatusFailed); serr != nil {
			s.logger.Error("batch status update failed", "batch", batch.ID, "error", serr)
		}
		return nil, fmt.Errorf("%w: %w", ErrSplit, err)
	}

	outcomes := s.dispatch.DispatchAll(ctx, output.Results)

	sent, failed := 0, 0
	for i, result := range output.Results {
		recordID, ok := records[result.Payslip.PageIndex]
		if !ok {
			continue
		}
		if err := s.batches.SetRecordArtifact(ctx, recordID, result.Filename, result.Path); err != nil {
			s.logger.Warn("artifact update failed", "record", recordID, "error", err)
		}

		outcome := outcomes[i]
		if outcome.Sent {
			sent++
		} else {
			failed++
		}
		if err := s.batches.SetRecordDelivery(ctx, recordID, outcome.Sent, outcome.Error); err != nil {
			s.logger.Warn("delivery update failed", "record", recordID, "error", err)
		}
	}

	if err := s.batches.SetBatchStatus(ctx, batch.ID, batches.StatusCompleted); err != nil {
		s.logger.Error("batch status update failed", "batch", batch.ID, "error", err)
	}

	s.logger.Info("batch processed",
		"batch", batch.ID,
		"total", len(output.Results),
		"sent", sent,
		"failed", failed,
		"skipped", output.Skipped)

	return &ProcessResult{
		BatchID: batch.ID,
		Total:   len(output.Results),
		Sent:    sent,
		Failed:  failed,
		Skipped: output.Skipped,
		Details: outcomes,
	}, nil
}

// Retry resends one delivery record using its stored artifact. The
// artifact must still be on disk and the record must carry an address.
func (s *System) Retry(ctx context.Context, recordID uuid.UUID) (*delivery.Outcome, error) {
	record, err := s.batches.FindRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if record.ArtifactPath == "" {
		return nil, ErrArtifactMissing
	}
	if _, err := os.Stat(record.ArtifactPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, record.OutputFilename)
	}
	if record.EmployeeEmail == "" {
		return nil, ErrNoEmail
	}

	outcome := delivery.Outcome{
		EmployeeName: record.EmployeeName,
		Email:        record.EmployeeEmail,
		Filename:     record.OutputFilename,
		Sent:         true,
	}
	err = s.dispatch.Send(ctx, delivery.SendRequest{
		Email:          record.EmployeeEmail,
		EmployeeName:   record.EmployeeName,
		Period:         payslips.FormatPeriod(record.Month, record.Year),
		AttachmentPath: record.ArtifactPath,
		AttachmentName: record.OutputFilename,
	})
	if err != nil {
		outcome.Sent = false
		outcome.Error = err.Error()
	}

	if uerr := s.batches.SetRecordDelivery(ctx, recordID, outcome.Sent, outcome.Error); uerr != nil {
		s.logger.Warn("delivery update failed", "record", recordID, "error", uerr)
	}

	s.logger.Info("delivery retried",
		"record", recordID,
		"email", record.EmployeeEmail,
		"sent", outcome.Sent)

	return &outcome, nil
}
