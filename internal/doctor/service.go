package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AvailabilityStore is the slice of the availability layer the doctor service
// needs: when a doctor is removed, their generated calendar goes with them.
type AvailabilityStore interface {
	DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error
}

type Service struct {
	repo           Repository
	availabilities AvailabilityStore
	log            zerolog.Logger
}

func NewService(repo Repository, availabilities AvailabilityStore, log zerolog.Logger) *Service {
	return &Service{
		repo:           repo,
		availabilities: availabilities,
		log:            log,
	}
}

func (s *Service) Create(ctx context.Context, d *Doctor) (*Doctor, error) {
	created, err := s.repo.Create(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}

	s.log.Info().
		Str("doctor_id", created.ID.String()).
		Str("specialty", created.Specialty).
		Msg("doctor registered")

	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// Update replaces name, specialty and schedule. Fields left empty in the
// request keep their current value; the handler resolves that before calling
// here, so the doctor passed in is the full desired state.
func (s *Service) Update(ctx context.Context, d *Doctor) (*Doctor, error) {
	updated, err := s.repo.Update(ctx, d)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the doctor and every availability record generated for them.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.availabilities.DeleteByDoctor(ctx, id); err != nil {
		return fmt.Errorf("delete doctor availabilities: %w", err)
	}

	s.log.Info().Str("doctor_id", id.String()).Msg("doctor removed")
	return nil
}

func (s *Service) List(ctx context.Context) ([]Doctor, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListBySpecialty(ctx context.Context, specialty string) ([]Doctor, error) {
	return s.repo.ListBySpecialty(ctx, specialty)
}
