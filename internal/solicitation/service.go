package solicitation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/appointment-booking/internal/availability"
	"github.com/medbook/appointment-booking/internal/doctor"
	redisclient "github.com/medbook/appointment-booking/internal/redis"
)

var (
	// ErrNoDoctorsForSpecialty fails a submission before anything is stored.
	ErrNoDoctorsForSpecialty = errors.New("no doctors found with specialty")

	// ErrNoSuggestedSolicitation guards the patient decision endpoint: the
	// solicitation is absent or not currently SUGGESTED. Surfaced as a 400.
	ErrNoSuggestedSolicitation = errors.New("no suggested appointment found")

	// ErrSuggestionIncomplete means a SUGGESTED row is missing its doctor or
	// suggested slot, which should be impossible through normal transitions.
	ErrSuggestionIncomplete = errors.New("suggested appointment is missing suggestion data")

	// errAlternativeTaken makes the consumer retry the whole allocation when
	// the alternative slot was grabbed between search and booking.
	errAlternativeTaken = errors.New("alternative slot taken during booking")
)

// Allocator is the slice of the availability engine the state machine drives.
type Allocator interface {
	IsAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time, start string) (bool, error)
	Book(ctx context.Context, doctorID uuid.UUID, date time.Time, start string, appointmentID uuid.UUID) (bool, error)
	Release(ctx context.Context, doctorID uuid.UUID, date time.Time, start string, appointmentID uuid.UUID) (bool, error)
	FindNextSlotBySpecialty(ctx context.Context, specialty string, fromDate time.Time, fromTime string) (*availability.SlotRef, error)
}

type Service struct {
	repo    Repository
	doctors doctor.Repository
	slots   Allocator
	queue   redisclient.TriggerQueue
	log     zerolog.Logger
}

func NewService(repo Repository, doctors doctor.Repository, slots Allocator, queue redisclient.TriggerQueue, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		doctors: doctors,
		slots:   slots,
		queue:   queue,
		log:     log,
	}
}

// Submit stores a new PENDING solicitation and enqueues its trigger. The
// message carries only the id; allocation happens on the worker, not here.
// Fails fast when no doctor carries the requested specialty.
func (s *Service) Submit(ctx context.Context, sol *Solicitation) (*Solicitation, error) {
	docs, err := s.doctors.ListBySpecialty(ctx, sol.Specialty)
	if err != nil {
		return nil, fmt.Errorf("list doctors by specialty: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDoctorsForSpecialty, sol.Specialty)
	}

	saved, err := s.repo.Create(ctx, sol)
	if err != nil {
		return nil, fmt.Errorf("create solicitation: %w", err)
	}

	if err := s.queue.Enqueue(ctx, saved.ID); err != nil {
		return nil, fmt.Errorf("enqueue trigger for %s: %w", saved.ID, err)
	}

	s.log.Info().
		Str("solicitation_id", saved.ID.String()).
		Str("specialty", saved.Specialty).
		Msg("solicitation submitted")

	return saved, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Solicitation, error) {
	return s.repo.GetByID(ctx, id)
}

// ListSuggested pages the solicitations awaiting a patient decision, newest
// activity first.
func (s *Service) ListSuggested(ctx context.Context, limit, offset int) ([]Solicitation, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.ListByStatus(ctx, StatusSuggested, limit, offset)
}

// Process runs the allocation state machine for one trigger delivery.
// Delivery is at-least-once and may be reordered, so anything not PENDING is
// returned untouched. From PENDING: try the exact requested slot on each
// specialty doctor, then the nearest alternative across all of them, then
// reject.
func (s *Service) Process(ctx context.Context, id uuid.UUID) (*Solicitation, error) {
	sol, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if sol.Status != StatusPending {
		s.log.Info().
			Str("solicitation_id", id.String()).
			Str("status", string(sol.Status)).
			Msg("skipping trigger, solicitation not pending")
		return sol, nil
	}

	proc, err := s.repo.UpdateStatus(ctx, id, StatusPending, StatusProcessing)
	if err != nil {
		if errors.Is(err, ErrSolicitationNotFound) {
			// Lost the claim to a concurrent worker.
			return sol, nil
		}
		return nil, err
	}

	// A recorded target on a PENDING row means an earlier attempt died between
	// booking and its status write; free that slot before allocating again.
	if proc.DoctorID != nil {
		if proc, err = s.releaseAbandoned(ctx, proc); err != nil {
			return nil, err
		}
	}

	docs, err := s.doctors.ListBySpecialty(ctx, proc.Specialty)
	if err != nil {
		return nil, fmt.Errorf("list doctors by specialty: %w", err)
	}
	if len(docs) == 0 {
		s.log.Warn().
			Str("solicitation_id", id.String()).
			Str("specialty", proc.Specialty).
			Msg("no doctors left for specialty, rejecting")
		return s.repo.UpdateStatus(ctx, id, StatusProcessing, StatusRejected)
	}

	for _, doc := range docs {
		ok, err := s.slots.IsAvailable(ctx, doc.ID, proc.RequestedDate, proc.RequestedTime)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		// Record the target before booking, so a crash between the booking
		// and the status write leaves enough behind to release the slot.
		doctorID := doc.ID
		proc.DoctorID = &doctorID
		if proc, err = s.repo.Update(ctx, proc); err != nil {
			return nil, err
		}

		booked, err := s.slots.Book(ctx, doc.ID, proc.RequestedDate, proc.RequestedTime, proc.ID)
		if err != nil {
			return nil, err
		}
		if !booked {
			// The slot was grabbed between the check and the booking; the
			// next doctor may still have it open.
			continue
		}

		proc.Status = StatusConfirmed
		confirmed, err := s.repo.Update(ctx, proc)
		if err != nil {
			return nil, err
		}

		s.log.Info().
			Str("solicitation_id", id.String()).
			Str("doctor_id", doctorID.String()).
			Msg("solicitation confirmed at requested slot")
		return confirmed, nil
	}

	// Clear a target left by an exact-slot attempt that lost the booking race.
	if proc.DoctorID != nil {
		proc.DoctorID = nil
		if proc, err = s.repo.Update(ctx, proc); err != nil {
			return nil, err
		}
	}

	ref, err := s.slots.FindNextSlotBySpecialty(ctx, proc.Specialty, proc.RequestedDate, proc.RequestedTime)
	if err != nil {
		return nil, err
	}

	if ref == nil {
		s.log.Warn().
			Str("solicitation_id", id.String()).
			Str("specialty", proc.Specialty).
			Msg("no slot within search horizon, rejecting")
		return s.repo.UpdateStatus(ctx, id, StatusProcessing, StatusRejected)
	}

	doctorID := ref.DoctorID
	suggestedDate := ref.Date
	suggestedTime := ref.StartTime

	proc.DoctorID = &doctorID
	proc.SuggestedDate = &suggestedDate
	proc.SuggestedTime = &suggestedTime
	if proc, err = s.repo.Update(ctx, proc); err != nil {
		return nil, err
	}

	booked, err := s.slots.Book(ctx, ref.DoctorID, ref.Date, ref.StartTime, proc.ID)
	if err != nil {
		return nil, err
	}
	if !booked {
		return nil, errAlternativeTaken
	}

	proc.Status = StatusSuggested
	suggested, err := s.repo.Update(ctx, proc)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("solicitation_id", id.String()).
		Str("doctor_id", doctorID.String()).
		Str("suggested_date", suggestedDate.Format(availability.DateFormat)).
		Str("suggested_time", suggestedTime).
		Msg("alternative slot suggested")
	return suggested, nil
}

// releaseAbandoned frees the slot a prior attempt booked for this solicitation
// and clears the recorded target. The appointment id match inside Release
// keeps it from touching a slot since rebooked by someone else.
func (s *Service) releaseAbandoned(ctx context.Context, proc *Solicitation) (*Solicitation, error) {
	date, start := proc.RequestedDate, proc.RequestedTime
	if proc.SuggestedDate != nil && proc.SuggestedTime != nil {
		date, start = *proc.SuggestedDate, *proc.SuggestedTime
	}

	released, err := s.slots.Release(ctx, *proc.DoctorID, date, start, proc.ID)
	if err != nil {
		return nil, err
	}
	if released {
		s.log.Info().
			Str("solicitation_id", proc.ID.String()).
			Str("doctor_id", proc.DoctorID.String()).
			Msg("released slot held by an earlier attempt")
	}

	proc.DoctorID = nil
	proc.SuggestedDate = nil
	proc.SuggestedTime = nil
	return s.repo.Update(ctx, proc)
}

// ConfirmSuggestion applies the patient's decision to a SUGGESTED
// solicitation. Accepting keeps the already-booked suggested slot and only
// flips the status; declining flips to REJECTED. Anything not currently
// SUGGESTED is a bad request, whatever the decision.
func (s *Service) ConfirmSuggestion(ctx context.Context, id uuid.UUID, accept bool) (*Solicitation, error) {
	sol, err := s.repo.GetByIDAndStatus(ctx, id, StatusSuggested)
	if err != nil {
		if errors.Is(err, ErrSolicitationNotFound) {
			return nil, fmt.Errorf("%w with id: %s", ErrNoSuggestedSolicitation, id)
		}
		return nil, err
	}

	if !accept {
		return s.repo.UpdateStatus(ctx, id, StatusSuggested, StatusRejected)
	}

	if sol.DoctorID == nil || sol.SuggestedDate == nil || sol.SuggestedTime == nil {
		return nil, fmt.Errorf("%w: %s", ErrSuggestionIncomplete, id)
	}

	// The suggested slot was booked when it was offered, so acceptance needs
	// no allocator call.
	return s.repo.UpdateStatus(ctx, id, StatusSuggested, StatusConfirmed)
}

// Reprocess resets a solicitation to PENDING and re-enqueues its trigger.
// Called from the consumer's failure path and the stale-PROCESSING sweep,
// never from API clients.
func (s *Service) Reprocess(ctx context.Context, id uuid.UUID) error {
	sol, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	sol.Status = StatusPending
	if _, err := s.repo.Update(ctx, sol); err != nil {
		return fmt.Errorf("reset solicitation %s: %w", id, err)
	}

	if err := s.queue.Enqueue(ctx, id); err != nil {
		return fmt.Errorf("re-enqueue trigger for %s: %w", id, err)
	}

	s.log.Info().
		Str("solicitation_id", id.String()).
		Msg("solicitation reset to pending and re-enqueued")
	return nil
}

// SweepStaleProcessing resets PROCESSING solicitations that have not moved
// for maxAge. A row can stick in PROCESSING when the worker died mid-flight
// or when Reprocess itself failed; this is the recovery path.
func (s *Service) SweepStaleProcessing(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	stale, err := s.repo.FindStaleProcessing(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find stale processing solicitations: %w", err)
	}

	swept := 0
	for _, sol := range stale {
		if err := s.Reprocess(ctx, sol.ID); err != nil {
			s.log.Error().
				Err(err).
				Str("solicitation_id", sol.ID.String()).
				Msg("failed to sweep stale solicitation")
			continue
		}
		swept++
	}

	return swept, nil
}
