package extraction

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PageTexts extracts the text layer of every page, one string per page in
// order. Pages without a text layer yield empty strings rather than an
// error so scanned documents still flow through the pipeline.
func PageTexts(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	texts := make([]string, total)

	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i-1] = text
	}

	return texts, nil
}
