package extraction

import (
	"testing"

	"github.com/oharel/talush/internal/payslips"
)

func TestCorrectionsApply(t *testing.T) {
	corrections := Corrections{
		payslips.FieldName: {
			"דנה כחן": "דנה כהן",
		},
		payslips.FieldNationalID: {
			"12345678": "123456789",
		},
	}

	slips := []payslips.Payslip{
		{PageIndex: 0, Name: "דנה כחן", NationalID: "12345678"},
		{PageIndex: 1, Name: "יוסי לוי", NationalID: "55555"},
		{PageIndex: 2},
	}

	corrections.Apply(slips, testLogger())

	if slips[0].Name != "דנה כהן" {
		t.Errorf("expected corrected name, got %q", slips[0].Name)
	}
	if slips[0].NationalID != "123456789" {
		t.Errorf("expected corrected identity number, got %q", slips[0].NationalID)
	}
	if slips[1].Name != "יוסי לוי" || slips[1].NationalID != "55555" {
		t.Error("unlisted values must not change")
	}
	if slips[2].Name != "" {
		t.Error("empty fields must not change")
	}

	// A second pass over already corrected data changes nothing.
	corrections.Apply(slips, testLogger())
	if slips[0].Name != "דנה כהן" || slips[0].NationalID != "123456789" {
		t.Error("corrections must be idempotent")
	}
}

func TestOverridesApply(t *testing.T) {
	name := "רות לוי"
	empty := ""
	month := 2

	overrides := Overrides{
		1: {Name: &name, Email: &empty, Month: &month},
		9: {Name: &name},
	}

	slips := []payslips.Payslip{
		{PageIndex: 0, Name: "דנה כהן", Email: "dana@example.com", Month: 1, Year: 2024},
		{PageIndex: 1, Name: "יוסי לוי"},
	}

	overrides.Apply(slips)

	if slips[0].Name != "רות לוי" {
		t.Errorf("expected overridden name, got %q", slips[0].Name)
	}
	if slips[0].Email != "" {
		t.Errorf("explicit empty override must clear the field, got %q", slips[0].Email)
	}
	if slips[0].Month != 2 {
		t.Errorf("expected overridden month, got %d", slips[0].Month)
	}
	if slips[0].Year != 2024 {
		t.Errorf("untouched field must survive, got %d", slips[0].Year)
	}
	if slips[1].Name != "יוסי לוי" {
		t.Error("pages without overrides must not change")
	}
}
