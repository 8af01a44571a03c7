package extraction

import (
	"log/slog"

	"github.com/oharel/talush/internal/payslips"
)

// Corrections maps a field name to known mis-extracted values and their
// replacements. Applying corrections is idempotent: once a value has been
// replaced it no longer appears in the table, so a second pass is a no-op
// unless a replacement is itself listed as a mistake.
type Corrections map[string]map[string]string

// Apply rewrites known mistakes in every payslip. Empty fields are never
// touched.
func (c Corrections) Apply(slips []payslips.Payslip, logger *slog.Logger) {
	if len(c) == 0 {
		return
	}

	for i := range slips {
		c.applyField(&slips[i].Name, payslips.FieldName, logger)
		c.applyField(&slips[i].NationalID, payslips.FieldNationalID, logger)
		c.applyField(&slips[i].Email, payslips.FieldEmail, logger)
	}
}

func (c Corrections) applyField(value *string, field string, logger *slog.Logger) {
	if *value == "" {
		return
	}
	mapping, ok := c[field]
	if !ok {
		return
	}
	corrected, ok := mapping[*value]
	if !ok {
		return
	}
	logger.Info("auto-correcting field",
		"field", field,
		"from", *value,
		"to", corrected)
	*value = corrected
}

// Override carries reviewer edits for a single page. Nil pointers leave
// the extracted value unchanged; non-nil pointers replace it, including
// replacement with an empty value.
type Override struct {
	Name       *string `json:"name"`
	NationalID *string `json:"national_id"`
	Email      *string `json:"email"`
	Month      *int    `json:"month"`
	Year       *int    `json:"year"`
}

// Overrides is keyed by one-based page number, matching the numbering
// reviewers see.
type Overrides map[int]Override

// Apply folds reviewer edits into the extracted payslips. Overrides for
// page numbers outside the document are ignored.
func (o Overrides) Apply(slips []payslips.Payslip) {
	for i := range slips {
		ov, ok := o[slips[i].PageIndex+1]
		if !ok {
			continue
		}
		if ov.Name != nil {
			slips[i].Name = *ov.Name
		}
		if ov.NationalID != nil {
			slips[i].NationalID = *ov.NationalID
		}
		if ov.Email != nil {
			slips[i].Email = *ov.Email
		}
		if ov.Month != nil {
			slips[i].Month = *ov.Month
		}
		if ov.Year != nil {
			slips[i].Year = *ov.Year
		}
	}
}
