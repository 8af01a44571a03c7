package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oharel/talush/pkg/routes"
)

func multipartUpload(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(uploadField, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, writer.FormDataContentType()
}

func newTestServer(t *testing.T, h *harness) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	routes.Register(mux, h.sys.Handler(10<<20).Routes())
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHandlerUploadProcessFlow(t *testing.T) {
	h := newHarness(t, &fakeCompleter{responses: map[string]string{
		"img-0": `{"name": "דנה כהן", "employee_id": null, "email": "dana@example.com", "month": 4, "year": 2024}`,
	}})
	server := newTestServer(t, h)

	body, contentType := multipartUpload(t, "april.pdf", buildPDF(1), nil)
	resp, err := http.Post(server.URL+"/uploads", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var upload UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&upload); err != nil {
		t.Fatal(err)
	}
	if upload.SessionID == "" || len(upload.Pages) != 1 {
		t.Fatalf("unexpected upload result: %+v", upload)
	}

	// The page preview is served as an image.
	preview, err := http.Get(fmt.Sprintf("%s/uploads/%s/pages/1", server.URL, upload.SessionID))
	if err != nil {
		t.Fatal(err)
	}
	defer preview.Body.Close()
	if preview.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 preview, got %d", preview.StatusCode)
	}
	if ct := preview.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("unexpected preview content type: %q", ct)
	}

	// Processing without the missing identity number fails validation
	// with the per-page messages in the body.
	invalid, err := http.Post(
		fmt.Sprintf("%s/uploads/%s/process", server.URL, upload.SessionID),
		"application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	defer invalid.Body.Close()
	if invalid.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", invalid.StatusCode)
	}
	var failure struct {
		Pages []string `json:"pages"`
	}
	if err := json.NewDecoder(invalid.Body).Decode(&failure); err != nil {
		t.Fatal(err)
	}
	if len(failure.Pages) != 1 || failure.Pages[0] != "עמוד 1: חסר מספר ת.ז" {
		t.Fatalf("unexpected validation body: %+v", failure)
	}

	// Overrides arrive keyed by page number.
	processed, err := http.Post(
		fmt.Sprintf("%s/uploads/%s/process", server.URL, upload.SessionID),
		"application/json",
		strings.NewReader(`{"overrides": {"1": {"national_id": "123456789"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	defer processed.Body.Close()
	if processed.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", processed.StatusCode)
	}

	var result ProcessResult
	if err := json.NewDecoder(processed.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Total != 1 || result.Sent != 1 {
		t.Fatalf("unexpected process result: %+v", result)
	}

	// The consumed session is gone.
	review, err := http.Get(server.URL + "/uploads/" + upload.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	defer review.Body.Close()
	if review.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for consumed session, got %d", review.StatusCode)
	}
}

func TestHandlerRun(t *testing.T) {
	h := newHarness(t, &fakeCompleter{responses: map[string]string{
		"img-0": `{"name": "יוסי לוי", "employee_id": "55555", "email": "yossi@example.com", "month": 5, "year": 2024}`,
	}})
	server := newTestServer(t, h)

	body, contentType := multipartUpload(t, "may.pdf", buildPDF(1), nil)
	resp, err := http.Post(server.URL+"/runs", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result ProcessResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Total != 1 || result.Sent != 1 {
		t.Fatalf("unexpected run result: %+v", result)
	}
	if len(h.mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(h.mailer.sent))
	}
}
