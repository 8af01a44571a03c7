package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type fakeCompleter struct {
	mu        sync.Mutex
	responses map[string]string
	errors    map[string]error
	prompts   []string
}

func (f *fakeCompleter) Complete(ctx context.Context, png []byte, instructions string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, instructions)
	f.mu.Unlock()

	key := string(png)
	if err, ok := f.errors[key]; ok {
		return "", err
	}
	if resp, ok := f.responses[key]; ok {
		return resp, nil
	}
	return "", errors.New("no response configured")
}

func writePages(t *testing.T, count int) []Page {
	t.Helper()
	dir := t.TempDir()

	pages := make([]Page, count)
	for i := range pages {
		path := filepath.Join(dir, fmt.Sprintf("page-%d.png", i))
		if err := os.WriteFile(path, []byte(fmt.Sprintf("png-%d", i)), 0o644); err != nil {
			t.Fatal(err)
		}
		pages[i] = Page{Index: i, Text: fmt.Sprintf("text %d", i), ImagePath: path}
	}
	return pages
}

func TestVisionExtract(t *testing.T) {
	pages := writePages(t, 2)

	completer := &fakeCompleter{
		responses: map[string]string{
			"png-0": `{"name": "דנה כהן", "employee_id": "123-45-6789", "email": "dana@example.com", "month": 1, "year": 2024}`,
			"png-1": "```json\n{\"name\": \"יוסי לוי\", \"employee_id\": 55555, \"email\": null, \"month\": \"2\", \"year\": \"2024\"}\n```",
		},
	}

	extractor := NewVisionExtractor(completer, nil, 2, testLogger())
	slips, err := extractor.Extract(context.Background(), pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slips) != 2 {
		t.Fatalf("expected 2 payslips, got %d", len(slips))
	}

	if slips[0].Name != "דנה כהן" {
		t.Errorf("unexpected name: %q", slips[0].Name)
	}
	if slips[0].NationalID != "123456789" {
		t.Errorf("identity number must be digits only, got %q", slips[0].NationalID)
	}
	if slips[0].Month != 1 || slips[0].Year != 2024 {
		t.Errorf("unexpected period: %d/%d", slips[0].Month, slips[0].Year)
	}

	if slips[1].Name != "יוסי לוי" {
		t.Errorf("fenced response must still parse, got %q", slips[1].Name)
	}
	if slips[1].NationalID != "55555" {
		t.Errorf("numeric identity must coerce to string, got %q", slips[1].NationalID)
	}
	if slips[1].Email != "" {
		t.Errorf("null email must stay empty, got %q", slips[1].Email)
	}
	if slips[1].Month != 2 || slips[1].Year != 2024 {
		t.Errorf("string period must coerce, got %d/%d", slips[1].Month, slips[1].Year)
	}
	if slips[1].RawText != "text 1" {
		t.Errorf("page text must be retained, got %q", slips[1].RawText)
	}
}

func TestVisionPageFailureIsolated(t *testing.T) {
	pages := writePages(t, 3)

	completer := &fakeCompleter{
		responses: map[string]string{
			"png-0": `{"name": "דנה כהן", "employee_id": "123456789"}`,
			"png-2": `{"name": "רות ברק", "employee_id": "987654321"}`,
		},
		errors: map[string]error{
			"png-1": errors.New("rate limited"),
		},
	}

	extractor := NewVisionExtractor(completer, nil, 2, testLogger())
	slips, err := extractor.Extract(context.Background(), pages)
	if err != nil {
		t.Fatalf("a single page failure must not fail the run: %v", err)
	}
	if len(slips) != 3 {
		t.Fatalf("expected 3 payslips, got %d", len(slips))
	}

	if !slips[0].IsComplete() || !slips[2].IsComplete() {
		t.Error("surrounding pages must extract normally")
	}
	if slips[1].IsComplete() {
		t.Error("failed page must degrade to an empty record")
	}
	if slips[1].PageIndex != 1 || slips[1].RawText != "text 1" {
		t.Error("failed page keeps its index and text")
	}
}

func TestVisionPromptIncludesKnownNames(t *testing.T) {
	pages := writePages(t, 1)
	completer := &fakeCompleter{
		responses: map[string]string{
			"png-0": `{"name": "דנה כהן", "employee_id": "123456789"}`,
		},
	}

	extractor := NewVisionExtractor(completer, []string{"דנה כהן", "יוסי לוי"}, 1, testLogger())
	if _, err := extractor.Extract(context.Background(), pages); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(completer.prompts) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(completer.prompts))
	}
	prompt := completer.prompts[0]
	if !strings.Contains(prompt, "דנה כהן, יוסי לוי") {
		t.Error("prompt must list known employee names")
	}
	if !strings.Contains(prompt, "prefer the known spelling") {
		t.Error("prompt must instruct the model to prefer known spellings")
	}
}

func TestVisionMalformedResponse(t *testing.T) {
	pages := writePages(t, 1)
	completer := &fakeCompleter{
		responses: map[string]string{
			"png-0": "I could not read this page.",
		},
	}

	extractor := NewVisionExtractor(completer, nil, 1, testLogger())
	slips, err := extractor.Extract(context.Background(), pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slips[0].IsComplete() {
		t.Error("unparseable response must degrade to an empty record")
	}
}
