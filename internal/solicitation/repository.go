package solicitation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSolicitationNotFound = errors.New("solicitation not found")

// Repository contains all DB interactions for appointment solicitations.
type Repository interface {
	Create(ctx context.Context, s *Solicitation) (*Solicitation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Solicitation, error)

	// GetByIDAndStatus returns ErrSolicitationNotFound when the id exists but
	// the status differs; callers treat that as a state guard.
	GetByIDAndStatus(ctx context.Context, id uuid.UUID, status Status) (*Solicitation, error)

	// UpdateStatus is a compare-and-set on the current status. Returns
	// ErrSolicitationNotFound when the row is absent or no longer in `from`.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Solicitation, error)

	// Update persists doctor assignment, suggested slot and status together.
	Update(ctx context.Context, s *Solicitation) (*Solicitation, error)

	// ListByStatus pages by updated_at descending and reports the total count.
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Solicitation, int, error)

	// FindStaleProcessing returns PROCESSING rows last touched before the
	// cutoff; the sweep resets them.
	FindStaleProcessing(ctx context.Context, cutoff time.Time) ([]Solicitation, error)
}
