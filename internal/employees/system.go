package employees

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for employee directory operations.
type System interface {
	Handler() *Handler

	List(ctx context.Context) ([]Employee, error)
	KnownNames(ctx context.Context) ([]string, error)

	Find(ctx context.Context, id uuid.UUID) (*Employee, error)
	FindByNationalID(ctx context.Context, nationalID string) (*Employee, error)
	FindByName(ctx context.Context, name string) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)

	Upsert(ctx context.Context, nationalID, name, email string) (*Employee, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Employee, error)
}
