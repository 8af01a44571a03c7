// Package employees maintains the directory of known employees. The
// directory is built up as payslips are processed and feeds email
// backfill and the known-names bias in vision extraction.
package employees

import (
	"time"

	"github.com/google/uuid"
)

// Employee is a directory entry keyed by identity number. Email may be
// empty when no address has been learned yet.
type Employee struct {
	ID         uuid.UUID `json:"id"`
	NationalID string    `json:"national_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UpdateCommand replaces the mutable fields of an employee.
type UpdateCommand struct {
	NationalID string `json:"national_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}
