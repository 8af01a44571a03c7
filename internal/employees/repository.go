package employees

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oharel/talush/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// New creates an employee repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "employees"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) List(ctx context.Context) ([]Employee, error) {
	q := projection + ` FROM employees ORDER BY name`

	list, err := repository.QueryMany(ctx, r.db, q, nil, scanEmployee)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return list, nil
}

func (r *repo) KnownNames(ctx context.Context) ([]string, error) {
	q := `SELECT name FROM employees ORDER BY name`

	names, err := repository.QueryMany(ctx, r.db, q, nil,
		func(s repository.Scanner) (string, error) {
			var name string
			err := s.Scan(&name)
			return name, err
		})
	if err != nil {
		return nil, fmt.Errorf("known names: %w", err)
	}
	return names, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Employee, error) {
	return r.findBy(ctx, "id", id.String())
}

func (r *repo) FindByNationalID(ctx context.Context, nationalID string) (*Employee, error) {
	return r.findBy(ctx, "national_id", nationalID)
}

func (r *repo) FindByName(ctx context.Context, name string) (*Employee, error) {
	return r.findBy(ctx, "name", name)
}

func (r *repo) FindByEmail(ctx context.Context, email string) (*Employee, error) {
	return r.findBy(ctx, "email", email)
}

func (r *repo) findBy(ctx context.Context, column, value string) (*Employee, error) {
	q := projection + fmt.Sprintf(` FROM employees WHERE %s = $1`, column)

	e, err := repository.QueryOne(ctx, r.db, q, []any{value}, scanEmployee)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

// Upsert inserts a new directory entry or refreshes an existing one. The
// name always follows the latest payslip; an empty email never erases a
// stored address.
func (r *repo) Upsert(ctx context.Context, nationalID, name, email string) (*Employee, error) {
	nationalID = strings.TrimSpace(nationalID)
	name = strings.TrimSpace(name)
	if nationalID == "" || name == "" {
		return nil, fmt.Errorf("%w: identity number and name are required", ErrInvalid)
	}

	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Employee, error) {
		existing, err := repository.QueryOne(ctx, tx,
			projection+` FROM employees WHERE national_id = $1`,
			[]any{nationalID}, scanEmployee)

		if err == nil {
			if existing.Name == name && (email == "" || existing.Email == email) {
				return &existing, nil
			}
			return r.refresh(ctx, tx, existing, name, email)
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("find employee: %w", err)
		}

		now := r.now()
		q := `
			INSERT INTO employees (id, national_id, name, email, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING ` + columns

		e, err := repository.QueryOne(ctx, tx, q,
			[]any{uuid.New(), nationalID, name, nullable(email), now, now},
			scanEmployee)
		if err != nil {
			return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}

		r.logger.Info("employee added",
			"national_id", nationalID,
			"name", name)
		return &e, nil
	})
}

func (r *repo) refresh(ctx context.Context, tx *sql.Tx, existing Employee, name, email string) (*Employee, error) {
	q := `
		UPDATE employees
		SET name = $1, email = COALESCE($2, email), updated_at = $3
		WHERE id = $4
		RETURNING ` + columns

	e, err := repository.QueryOne(ctx, tx, q,
		[]any{name, nullable(email), r.now(), existing.ID.String()},
		scanEmployee)
	if err != nil {
		return nil, fmt.Errorf("refresh employee: %w", err)
	}

	r.logger.Info("employee refreshed",
		"national_id", e.NationalID,
		"name", e.Name)
	return &e, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Employee, error) {
	cmd.NationalID = strings.TrimSpace(cmd.NationalID)
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.NationalID == "" || cmd.Name == "" {
		return nil, fmt.Errorf("%w: identity number and name are required", ErrInvalid)
	}

	q := `
		UPDATE employees
		SET national_id = $1, name = $2, email = $3, updated_at = $4
		WHERE id = $5
		RETURNING ` + columns

	e, err := repository.QueryOne(ctx, r.db, q,
		[]any{cmd.NationalID, cmd.Name, nullable(cmd.Email), r.now(), id.String()},
		scanEmployee)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
