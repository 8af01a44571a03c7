package payslips

import "testing"

func TestDisplayFilename(t *testing.T) {
	tests := []struct {
		name     string
		slip     Payslip
		expected string
	}{
		{
			name:     "full period",
			slip:     Payslip{PageIndex: 0, Name: "דנה כהן", Month: 1, Year: 2024},
			expected: "דנה כהן - ינואר 2024.pdf",
		},
		{
			name:     "year only",
			slip:     Payslip{PageIndex: 0, Name: "דנה כהן", Year: 2024},
			expected: "דנה כהן - 2024.pdf",
		},
		{
			name:     "name only",
			slip:     Payslip{PageIndex: 0, Name: "דנה כהן"},
			expected: "דנה כהן.pdf",
		},
		{
			name:     "no name falls back to page number",
			slip:     Payslip{PageIndex: 2, Month: 3, Year: 2024},
			expected: "employee_page_3 - מרץ 2024.pdf",
		},
		{
			name:     "no name and no period",
			slip:     Payslip{PageIndex: 4},
			expected: "employee_page_5.pdf",
		},
		{
			name:     "month without year is ignored",
			slip:     Payslip{PageIndex: 0, Name: "יוסי לוי", Month: 5},
			expected: "יוסי לוי.pdf",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.slip.DisplayFilename(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestIsComplete(t *testing.T) {
	complete := Payslip{Name: "דנה כהן", NationalID: "123456789"}
	if !complete.IsComplete() {
		t.Error("expected complete payslip")
	}

	missing := Payslip{Name: "דנה כהן"}
	if missing.IsComplete() {
		t.Error("expected incomplete payslip without identity number")
	}
	if fields := missing.MissingFields(); len(fields) != 1 || fields[0] != FieldNationalID {
		t.Errorf("unexpected missing fields: %v", fields)
	}

	empty := Payslip{}
	fields := empty.MissingFields()
	if len(fields) != 2 || fields[0] != FieldName || fields[1] != FieldNationalID {
		t.Errorf("unexpected missing fields: %v", fields)
	}
}

func TestFormatPeriod(t *testing.T) {
	if got := FormatPeriod(12, 2023); got != "דצמבר 2023" {
		t.Errorf("unexpected period: %q", got)
	}
	if got := FormatPeriod(0, 2023); got != "2023" {
		t.Errorf("unexpected period: %q", got)
	}
	if got := FormatPeriod(0, 0); got != "לא ידוע" {
		t.Errorf("unexpected period: %q", got)
	}
	if got := FormatPeriod(13, 2023); got != "2023" {
		t.Errorf("out of range month should degrade to year: %q", got)
	}
}

func TestMonthLookup(t *testing.T) {
	for m := 1; m <= 12; m++ {
		name := MonthName(m)
		if name == "" {
			t.Fatalf("missing name for month %d", m)
		}
		if got := MonthNumber(name); got != m {
			t.Errorf("round trip for %q: expected %d, got %d", name, m, got)
		}
	}
	if MonthName(0) != "" || MonthName(13) != "" {
		t.Error("out of range months must be empty")
	}
	if MonthNumber("לא חודש") != 0 {
		t.Error("unknown name must resolve to 0")
	}
}
