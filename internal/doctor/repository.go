package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrDoctorNotFound = errors.New("doctor not found")

// Repository contains all DB interactions needed for doctors.
type Repository interface {
	Create(ctx context.Context, d *Doctor) (*Doctor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) (*Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Doctor, error)

	// ListBySpecialty matches the stored specialty string exactly, case
	// sensitive, ordered by creation time. The order decides which doctor a
	// solicitation is matched against first.
	ListBySpecialty(ctx context.Context, specialty string) ([]Doctor, error)
}
