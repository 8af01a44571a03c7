package payslips

import "strings"

var hebrewMonths = [13]string{
	"",
	"ינואר",
	"פברואר",
	"מרץ",
	"אפריל",
	"מאי",
	"יוני",
	"יולי",
	"אוגוסט",
	"ספטמבר",
	"אוקטובר",
	"נובמבר",
	"דצמבר",
}

// MonthName returns the Hebrew month name for 1..12, or "" otherwise.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return hebrewMonths[month]
}

// MonthNumber resolves a Hebrew month name to 1..12, or 0 when the name
// is not recognized.
func MonthNumber(name string) int {
	name = strings.TrimSpace(name)
	for i := 1; i <= 12; i++ {
		if hebrewMonths[i] == name {
			return i
		}
	}
	return 0
}
