// Package payslips defines the per-page extraction record shared by the
// extraction strategies, the review session, the splitter and delivery.
package payslips

import "fmt"

// Payslip holds whatever could be extracted from a single page. Empty
// strings and zero month/year mean the field is unknown. PageIndex is
// zero-based.
type Payslip struct {
	PageIndex  int    `json:"page_index"`
	Name       string `json:"employee_name"`
	NationalID string `json:"employee_id"`
	Email      string `json:"email"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	RawText    string `json:"-"`
}

// IsComplete reports whether the page can be split and delivered: both
// the employee name and identity number are required. Email and period
// only degrade the output, they never block it.
func (p Payslip) IsComplete() bool {
	return p.Name != "" && p.NationalID != ""
}

// MissingFields lists the required fields that are absent, in a stable
// order, for building validation messages.
func (p Payslip) MissingFields() []string {
	var missing []string
	if p.Name == "" {
		missing = append(missing, FieldName)
	}
	if p.NationalID == "" {
		missing = append(missing, FieldNationalID)
	}
	return missing
}

const (
	FieldName       = "name"
	FieldNationalID = "national_id"
	FieldEmail      = "email"
)

// Period renders the pay period in Hebrew: month name and year when both
// are known, bare year when only the year is known, otherwise "לא ידוע".
func (p Payslip) Period() string {
	return FormatPeriod(p.Month, p.Year)
}

func FormatPeriod(month, year int) string {
	switch {
	case month >= 1 && month <= 12 && year != 0:
		return fmt.Sprintf("%s %d", MonthName(month), year)
	case year != 0:
		return fmt.Sprintf("%d", year)
	default:
		return "לא ידוע"
	}
}

// DisplayFilename builds the output PDF name, degrading as fields go
// missing: name and full period, name and year, name alone, and finally
// a positional fallback using the one-based page number.
func (p Payslip) DisplayFilename() string {
	base := p.baseFilename()
	return base + ".pdf"
}

func (p Payslip) baseFilename() string {
	name := p.Name
	if name == "" {
		name = fmt.Sprintf("employee_page_%d", p.PageIndex+1)
	}
	switch {
	case p.Month >= 1 && p.Month <= 12 && p.Year != 0:
		return fmt.Sprintf("%s - %s %d", name, MonthName(p.Month), p.Year)
	case p.Year != 0:
		return fmt.Sprintf("%s - %d", name, p.Year)
	default:
		return name
	}
}
