package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAvailabilityNotFound = errors.New("availability not found")

	// ErrVersionConflict means a concurrent writer updated the record between
	// our read and write. The slot state must be re-read before retrying.
	ErrVersionConflict = errors.New("availability version conflict")
)

// Repository contains all DB interactions for doctor availability records.
type Repository interface {
	Insert(ctx context.Context, a *DoctorAvailability) (*DoctorAvailability, error)
	GetByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DoctorAvailability, error)

	// UpdateSlots persists the whole slot list, guarded by the record's
	// version. Returns ErrVersionConflict when the stored version moved on.
	UpdateSlots(ctx context.Context, a *DoctorAvailability) (*DoctorAvailability, error)

	DeleteRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) error
	DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error
}
