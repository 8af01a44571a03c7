package employees

import (
	"database/sql"

	"github.com/oharel/talush/pkg/repository"
)

const columns = "id, national_id, name, email, created_at, updated_at"

const projection = "SELECT " + columns

func scanEmployee(s repository.Scanner) (Employee, error) {
	var (
		e     Employee
		email sql.NullString
	)
	if err := s.Scan(
		&e.ID,
		&e.NationalID,
		&e.Name,
		&email,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return Employee{}, err
	}
	e.Email = email.String
	return e, nil
}
