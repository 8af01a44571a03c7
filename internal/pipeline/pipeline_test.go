package pipeline

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/oharel/talush/internal/batches"
	"github.com/oharel/talush/internal/config"
	"github.com/oharel/talush/internal/delivery"
	"github.com/oharel/talush/internal/employees"
	"github.com/oharel/talush/internal/extraction"
	"github.com/oharel/talush/internal/schema"
	"github.com/oharel/talush/internal/session"
	"github.com/oharel/talush/internal/splitter"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// buildPDF constructs a minimal valid PDF with the given number of pages,
// each carrying a short content stream.
func buildPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int

	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj(fmt.Sprintf(
		"2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pages))
	addObj("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i := 0; i < pages; i++ {
		content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (Page %d) Tj ET", i+1)
		addObj(fmt.Sprintf(
			"%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>\nendobj\n",
			4+2*i, 5+2*i))
		addObj(fmt.Sprintf(
			"%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			5+2*i, len(content), content))
	}

	xrefPos := buf.Len()
	total := len(offsets) + 1

	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", total))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	buf.WriteString(fmt.Sprintf(
		"trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		total, xrefPos))

	return buf.Bytes()
}

// fakeRender counts real pages but fakes the ImageMagick rendering: each
// page image is a small marker file the fake completer keys off.
type fakeRender struct{}

func (fakeRender) PageCount(path string) (int, error) {
	return api.PageCountFile(path)
}

func (fakeRender) RenderPages(ctx context.Context, pdfPath, dir string) ([]string, error) {
	count, err := api.PageCountFile(pdfPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, count)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("page-%d.png", i))
		if err := os.WriteFile(paths[i], fmt.Appendf(nil, "img-%d", i), 0o600); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func (fakeRender) WritePreviews(pagePaths []string, dir string, maxWidth int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, src := range pagePaths {
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("%d.png", i)), data, 0o600); err != nil {
			return err
		}
	}
	return nil
}

func (fakeRender) Preview(dir string, pageIndex int) ([]byte, error) {
	return os.ReadFile(filepath.Join(dir, fmt.Sprintf("%d.png", pageIndex)))
}

// fakeCompleter maps page image content to canned model responses.
type fakeCompleter struct {
	responses map[string]string
}

func (f *fakeCompleter) Complete(ctx context.Context, png []byte, instructions string) (string, error) {
	response, ok := f.responses[string(png)]
	if !ok {
		return "", fmt.Errorf("no response for %q", string(png))
	}
	return response, nil
}

type fakeMailer struct {
	sent []delivery.Message
	fail map[string]error
}

func (f *fakeMailer) Send(ctx context.Context, msg delivery.Message) error {
	if err, ok := f.fail[msg.To]; ok {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type harness struct {
	sys       *System
	db        *sql.DB
	employees employees.System
	batches   batches.System
	mailer    *fakeMailer
	sessions  *session.Store
}

func newHarness(t *testing.T, completer extraction.Completer) *harness {
	t.Helper()
	logger := slog.Default()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := schema.Apply(context.Background(), db); err != nil {
		t.Fatal(err)
	}

	emp := employees.New(db, logger)
	bat := batches.New(db, logger)
	mailer := &fakeMailer{fail: map[string]error{}}
	sessions := session.NewStore(0, logger)

	root := t.TempDir()
	sys := New(Options{
		Pipeline: config.PipelineConfig{
			UploadDir:       filepath.Join(root, "uploads"),
			OutputDir:       filepath.Join(root, "output"),
			PreviewMaxWidth: 400,
		},
		Vision:    config.VisionConfig{MaxConcurrent: 2},
		Sessions:  sessions,
		Employees: emp,
		Batches:   bat,
		Render:    fakeRender{},
		Splitter:  splitter.New(logger),
		Dispatch:  delivery.NewDispatcher(mailer, "מחלקת שכר", logger),
		Completer: completer,
	}, logger)

	return &harness{
		sys:       sys,
		db:        db,
		employees: emp,
		batches:   bat,
		mailer:    mailer,
		sessions:  sessions,
	}
}

func TestUploadReviewProcess(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &fakeCompleter{responses: map[string]string{
		"img-0": `{"name": "דנה כהן", "employee_id": "123456789", "email": "dana@example.com", "month": 3, "year": 2024}`,
		"img-1": `{"name": "יוסי לוי", "employee_id": null, "email": null, "month": 3, "year": 2024}`,
	}})

	upload, err := h.sys.Upload(ctx, UploadCommand{Filename: "march.pdf", Data: buildPDF(2)})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if upload.Method != MethodVision {
		t.Errorf("expected vision method, got %q", upload.Method)
	}
	if upload.PageCount != 2 || len(upload.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d/%d", upload.PageCount, len(upload.Pages))
	}
	if !upload.Pages[0].IsValid {
		t.Error("page 1 should be valid")
	}
	if upload.Pages[1].IsValid {
		t.Error("page 2 is missing an identity number and should be invalid")
	}
	if upload.Pages[0].Filename != "דנה כהן - מרץ 2024.pdf" {
		t.Errorf("unexpected filename: %q", upload.Pages[0].Filename)
	}

	// Processing with an incomplete page must fail validation before any
	// batch is written.
	_, err = h.sys.Process(ctx, upload.SessionID, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Messages) != 1 || verr.Messages[0] != "עמוד 2: חסר מספר ת.ז" {
		t.Fatalf("unexpected validation messages: %v", verr.Messages)
	}
	if list, _ := h.batches.ListBatches(ctx); len(list) != 0 {
		t.Fatalf("validation failure must not create a batch, got %d", len(list))
	}

	// The reviewer supplies the missing identity number and an address.
	id := "987654321"
	email := "yossi@example.com"
	result, err := h.sys.Process(ctx, upload.SessionID, extraction.Overrides{
		2: {NationalID: &id, Email: &email},
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if result.Total != 2 || result.Sent != 2 || result.Failed != 0 {
		t.Fatalf("expected 2 sent, got total=%d sent=%d failed=%d",
			result.Total, result.Sent, result.Failed)
	}
	if len(h.mailer.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(h.mailer.sent))
	}

	records, err := h.batches.RecordsForBatch(ctx, result.BatchID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, record := range records {
		if record.DeliveryStatus != batches.DeliverySent {
			t.Errorf("record %s: expected sent, got %q", record.ID, record.DeliveryStatus)
		}
		if record.ArtifactPath == "" {
			t.Errorf("record %s: missing artifact path", record.ID)
			continue
		}
		if _, err := os.Stat(record.ArtifactPath); err != nil {
			t.Errorf("artifact not on disk: %v", err)
		}
	}

	batch, err := h.batches.FindBatch(ctx, result.BatchID)
	if err != nil {
		t.Fatal(err)
	}
	if batch.Status != batches.StatusCompleted {
		t.Errorf("expected completed batch, got %q", batch.Status)
	}

	// The directory learned both employees.
	if _, err := h.employees.FindByNationalID(ctx, "123456789"); err != nil {
		t.Errorf("employee not upserted: %v", err)
	}

	// The period is now marked delivered for the review screen.
	sent, err := h.batches.AlreadyDelivered(ctx, "123456789", 3, 2024)
	if err != nil {
		t.Fatal(err)
	}
	if !sent {
		t.Error("expected delivery to be recorded for the period")
	}

	// The session is consumed.
	if _, err := h.sys.Review(ctx, upload.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected consumed session, got %v", err)
	}
}

func TestUploadBackfillsEmailFromDirectory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &fakeCompleter{responses: map[string]string{
		"img-0": `{"name": "דנה כהן", "employee_id": "123456789", "email": null, "month": 1, "year": 2024}`,
	}})

	if _, err := h.employees.Upsert(ctx, "123456789", "דנה כהן", "dana@example.com"); err != nil {
		t.Fatal(err)
	}

	upload, err := h.sys.Upload(ctx, UploadCommand{Filename: "jan.pdf", Data: buildPDF(1)})
	if err != nil {
		t.Fatal(err)
	}
	if upload.Pages[0].Email != "dana@example.com" {
		t.Errorf("expected backfilled email, got %q", upload.Pages[0].Email)
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	if _, err := h.sys.Upload(ctx, UploadCommand{Filename: "notes.txt", Data: []byte("x")}); !errors.Is(err, ErrInvalidUpload) {
		t.Errorf("expected invalid upload, got %v", err)
	}
	if _, err := h.sys.Upload(ctx, UploadCommand{Filename: "empty.pdf"}); !errors.Is(err, ErrEmptyUpload) {
		t.Errorf("expected empty upload, got %v", err)
	}
}

func TestPagePreview(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &fakeCompleter{responses: map[string]string{
		"img-0": `{"name": "א", "employee_id": "12345", "email": null, "month": null, "year": null}`,
	}})

	upload, err := h.sys.Upload(ctx, UploadCommand{Filename: "one.pdf", Data: buildPDF(1)})
	if err != nil {
		t.Fatal(err)
	}

	data, err := h.sys.PagePreview(upload.SessionID, 1)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if string(data) != "img-0" {
		t.Errorf("unexpected preview payload: %q", data)
	}

	if _, err := h.sys.PagePreview(upload.SessionID, 99); !errors.Is(err, ErrPreviewMissing) {
		t.Errorf("expected missing preview, got %v", err)
	}
	if _, err := h.sys.PagePreview("nope", 1); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected session not found, got %v", err)
	}
}

func TestRunProcessesIncompletePages(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &fakeCompleter{responses: map[string]string{
		"img-0": `{"name": null, "employee_id": null, "email": null, "month": null, "year": null}`,
	}})

	result, err := h.sys.Run(ctx, UploadCommand{Filename: "blind.pdf", Data: buildPDF(1)}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Total != 1 || result.Sent != 0 || result.Failed != 1 {
		t.Fatalf("expected 1 failed delivery, got total=%d sent=%d failed=%d",
			result.Total, result.Sent, result.Failed)
	}
	if result.Details[0].Error != "No email address found in payslip" {
		t.Errorf("unexpected outcome error: %q", result.Details[0].Error)
	}

	records, err := h.batches.RecordsForBatch(ctx, result.BatchID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].DeliveryStatus != batches.DeliveryFailed {
		t.Fatalf("expected one failed record, got %+v", records)
	}

	// One-shot runs never leave sessions behind.
	if h.sessions.Len() != 0 {
		t.Errorf("expected no sessions, got %d", h.sessions.Len())
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	batch, err := h.batches.CreateBatch(ctx, "old.pdf", "pattern", 1)
	if err != nil {
		t.Fatal(err)
	}

	create := func(t *testing.T, email string) *batches.Record {
		t.Helper()
		record, err := h.batches.CreateRecord(ctx, batches.CreateRecord{
			BatchID:       batch.ID,
			NationalID:    "123456789",
			EmployeeName:  "דנה כהן",
			EmployeeEmail: email,
			Month:         2,
			Year:          2024,
			PageIndex:     0,
		})
		if err != nil {
			t.Fatal(err)
		}
		return record
	}

	t.Run("no artifact recorded", func(t *testing.T) {
		record := create(t, "dana@example.com")
		if _, err := h.sys.Retry(ctx, record.ID); !errors.Is(err, ErrArtifactMissing) {
			t.Errorf("expected missing artifact, got %v", err)
		}
	})

	t.Run("artifact gone from disk", func(t *testing.T) {
		record := create(t, "dana@example.com")
		stale := filepath.Join(t.TempDir(), "gone.pdf")
		if err := h.batches.SetRecordArtifact(ctx, record.ID, "gone.pdf", stale); err != nil {
			t.Fatal(err)
		}
		if _, err := h.sys.Retry(ctx, record.ID); !errors.Is(err, ErrArtifactMissing) {
			t.Errorf("expected missing artifact, got %v", err)
		}
	})

	t.Run("no email on record", func(t *testing.T) {
		record := create(t, "")
		path := filepath.Join(t.TempDir(), "slip.pdf")
		if err := os.WriteFile(path, buildPDF(1), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := h.batches.SetRecordArtifact(ctx, record.ID, "slip.pdf", path); err != nil {
			t.Fatal(err)
		}
		if _, err := h.sys.Retry(ctx, record.ID); !errors.Is(err, ErrNoEmail) {
			t.Errorf("expected missing email, got %v", err)
		}
	})

	t.Run("resend succeeds and updates the record", func(t *testing.T) {
		record := create(t, "dana@example.com")
		path := filepath.Join(t.TempDir(), "slip.pdf")
		if err := os.WriteFile(path, buildPDF(1), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := h.batches.SetRecordArtifact(ctx, record.ID, "slip.pdf", path); err != nil {
			t.Fatal(err)
		}

		outcome, err := h.sys.Retry(ctx, record.ID)
		if err != nil {
			t.Fatalf("retry: %v", err)
		}
		if !outcome.Sent {
			t.Fatalf("expected sent outcome, got %+v", outcome)
		}

		last := h.mailer.sent[len(h.mailer.sent)-1]
		if last.To != "dana@example.com" {
			t.Errorf("unexpected recipient: %q", last.To)
		}
		if last.Subject != "תלוש שכר - פברואר 2024" {
			t.Errorf("unexpected subject: %q", last.Subject)
		}

		updated, err := h.batches.FindRecord(ctx, record.ID)
		if err != nil {
			t.Fatal(err)
		}
		if updated.DeliveryStatus != batches.DeliverySent || updated.SentAt == nil {
			t.Errorf("record not marked sent: %+v", updated)
		}
	})

	t.Run("unknown record", func(t *testing.T) {
		if _, err := h.sys.Retry(ctx, uuid.New()); !errors.Is(err, batches.ErrNotFound) {
			t.Errorf("expected not found, got %v", err)
		}
	})
}
