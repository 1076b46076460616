package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/appointment-booking/internal/doctor"
	redisclient "github.com/medbook/appointment-booking/internal/redis"
)

// SearchHorizonDays bounds the forward scan of the next-slot search. A
// request with nothing open in the next 30 days is rejected rather than
// scheduled arbitrarily far out.
const SearchHorizonDays = 30

type Service struct {
	repo    Repository
	doctors doctor.Repository
	locker  redisclient.Locker
	log     zerolog.Logger
}

func NewService(repo Repository, doctors doctor.Repository, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		doctors: doctors,
		locker:  locker,
		log:     log,
	}
}

// Generate rebuilds availability records for every date in [from, to]. Any
// existing records in the range are deleted first, bookings included, so
// callers must not regenerate over dates that already carry appointments.
// Dates on which the doctor has no schedule window get no record at all.
func (s *Service) Generate(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]DoctorAvailability, error) {
	doc, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteRange(ctx, doctorID, from, to); err != nil {
		return nil, err
	}

	var result []DoctorAvailability
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		templates := doc.TemplatesFor(doctor.DayOfWeekFor(date))
		if len(templates) == 0 {
			continue
		}

		saved, err := s.repo.Insert(ctx, &DoctorAvailability{
			DoctorID:  doctorID,
			Date:      date,
			TimeSlots: buildDaySlots(templates),
		})
		if err != nil {
			return nil, fmt.Errorf("insert availability for %s: %w", date.Format(DateFormat), err)
		}

		result = append(result, *saved)
	}

	s.log.Info().
		Str("doctor_id", doctorID.String()).
		Str("from", from.Format(DateFormat)).
		Str("to", to.Format(DateFormat)).
		Int("days", len(result)).
		Msg("availability generated")

	return result, nil
}

// GetByDate is a pure read: it never generates anything. Returns
// ErrAvailabilityNotFound when no record exists for that date.
func (s *Service) GetByDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DoctorAvailability, error) {
	return s.repo.GetByDoctorAndDate(ctx, doctorID, date)
}

// GetOrGenerate returns the stored record for the date, generating and
// persisting it on the fly when the doctor works that weekday but no record
// exists yet. Generation runs under the day lock: the record is re-read inside
// it, so a miss that raced a concurrent insert can never regenerate over an
// existing booking. ErrAvailabilityNotFound means the doctor has no schedule
// window on that weekday, which is distinct from a record with zero open slots.
func (s *Service) GetOrGenerate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DoctorAvailability, error) {
	rec, err := s.repo.GetByDoctorAndDate(ctx, doctorID, date)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrAvailabilityNotFound) {
		return nil, err
	}

	var out *DoctorAvailability
	err = s.locker.WithDayLock(ctx, doctorID, date.Format(DateFormat), func(lockCtx context.Context) error {
		var err error
		out, err = s.getOrGenerateLocked(lockCtx, doctorID, date)
		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// getOrGenerateLocked is GetOrGenerate's body for callers already holding the
// day lock. The read happens inside the lock, so it only generates when the
// record is truly absent.
func (s *Service) getOrGenerateLocked(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DoctorAvailability, error) {
	rec, err := s.repo.GetByDoctorAndDate(ctx, doctorID, date)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrAvailabilityNotFound) {
		return nil, err
	}

	doc, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if len(doc.TemplatesFor(doctor.DayOfWeekFor(date))) == 0 {
		return nil, ErrAvailabilityNotFound
	}

	generated, err := s.Generate(ctx, doctorID, date, date)
	if err != nil {
		return nil, err
	}
	if len(generated) == 0 {
		return nil, ErrAvailabilityNotFound
	}

	return &generated[0], nil
}

// AvailableSlots lists the open slots for a date, generating the record
// lazily if needed. A doctor who does not work that day yields an empty list.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]TimeSlot, error) {
	rec, err := s.GetOrGenerate(ctx, doctorID, date)
	if err != nil {
		if errors.Is(err, ErrAvailabilityNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec.AvailableSlots(), nil
}

// IsAvailable reports whether the exact [start, start+30m) slot is open. When
// no record exists it falls back to schedule containment; that fallback looks
// only at the weekly windows, not at bookings.
func (s *Service) IsAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time, start string) (bool, error) {
	clock, err := ParseClock(start)
	if err != nil {
		return false, err
	}

	rec, err := s.repo.GetByDoctorAndDate(ctx, doctorID, date)
	if err == nil {
		return findSlot(rec.TimeSlots, clock, true) >= 0, nil
	}
	if !errors.Is(err, ErrAvailabilityNotFound) {
		return false, err
	}

	doc, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return false, nil
		}
		return false, err
	}

	return templatesCover(doc.TemplatesFor(doctor.DayOfWeekFor(date)), clock), nil
}

// Book flips the exact slot to unavailable and records the appointment id.
// A taken or nonexistent slot is a normal outcome and reports false, not an
// error. The write runs under the per-day lock and a version check, so a
// concurrent booking of the same slot can never be silently overwritten.
func (s *Service) Book(ctx context.Context, doctorID uuid.UUID, date time.Time, start string, appointmentID uuid.UUID) (bool, error) {
	clock, err := ParseClock(start)
	if err != nil {
		return false, err
	}

	booked := false
	err = s.locker.WithDayLock(ctx, doctorID, date.Format(DateFormat), func(lockCtx context.Context) error {
		rec, err := s.getOrGenerateLocked(lockCtx, doctorID, date)
		if err != nil {
			if errors.Is(err, ErrAvailabilityNotFound) {
				return nil
			}
			return err
		}

		idx := findSlot(rec.TimeSlots, clock, true)
		if idx < 0 {
			s.log.Warn().
				Str("doctor_id", doctorID.String()).
				Str("date", date.Format(DateFormat)).
				Str("time", clock.String()).
				Msg("no open slot to book")
			return nil
		}

		rec.TimeSlots[idx].Available = false
		rec.TimeSlots[idx].AppointmentID = &appointmentID

		if _, err := s.repo.UpdateSlots(lockCtx, rec); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				s.log.Warn().
					Str("doctor_id", doctorID.String()).
					Str("date", date.Format(DateFormat)).
					Msg("booking lost version race")
				return nil
			}
			return err
		}

		booked = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return booked, nil
}

// Release reopens the slot held by the given appointment. Reports false when
// no slot at that time is held by it, so releasing can never free a slot
// rebooked under another appointment.
func (s *Service) Release(ctx context.Context, doctorID uuid.UUID, date time.Time, start string, appointmentID uuid.UUID) (bool, error) {
	clock, err := ParseClock(start)
	if err != nil {
		return false, err
	}

	released := false
	err = s.locker.WithDayLock(ctx, doctorID, date.Format(DateFormat), func(lockCtx context.Context) error {
		rec, err := s.repo.GetByDoctorAndDate(lockCtx, doctorID, date)
		if err != nil {
			if errors.Is(err, ErrAvailabilityNotFound) {
				return nil
			}
			return err
		}

		idx := findHeldSlot(rec.TimeSlots, clock, appointmentID)
		if idx < 0 {
			return nil
		}

		rec.TimeSlots[idx].Available = true
		rec.TimeSlots[idx].AppointmentID = nil

		if _, err := s.repo.UpdateSlots(lockCtx, rec); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				return nil
			}
			return err
		}

		released = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return released, nil
}

// FindNextSlot returns the earliest open slot at or after (fromDate,
// fromTime): first the remainder of fromDate, then each following date up to
// the horizon, taking the first date with anything open. Returns nil when the
// horizon is exhausted.
func (s *Service) FindNextSlot(ctx context.Context, doctorID uuid.UUID, fromDate time.Time, fromTime string) (*SlotRef, error) {
	clock, err := ParseClock(fromTime)
	if err != nil {
		return nil, err
	}
	fromKey := clock.String()

	rec, err := s.GetOrGenerate(ctx, doctorID, fromDate)
	if err != nil && !errors.Is(err, ErrAvailabilityNotFound) {
		return nil, err
	}
	if rec != nil {
		if start, ok := earliestOpenFrom(rec.TimeSlots, fromKey); ok {
			return &SlotRef{DoctorID: doctorID, Date: fromDate, StartTime: start}, nil
		}
	}

	for i := 1; i <= SearchHorizonDays; i++ {
		date := fromDate.AddDate(0, 0, i)

		rec, err := s.GetOrGenerate(ctx, doctorID, date)
		if err != nil {
			if errors.Is(err, ErrAvailabilityNotFound) {
				continue
			}
			return nil, err
		}

		if start, ok := earliestOpenFrom(rec.TimeSlots, "00:00"); ok {
			return &SlotRef{DoctorID: doctorID, Date: date, StartTime: start}, nil
		}
	}

	return nil, nil
}

// FindNextSlotBySpecialty scans the specialty's doctors in repository order
// and returns the first doctor's next slot. Repository order, not slot
// earliness across doctors, decides the winner.
func (s *Service) FindNextSlotBySpecialty(ctx context.Context, specialty string, fromDate time.Time, fromTime string) (*SlotRef, error) {
	docs, err := s.doctors.ListBySpecialty(ctx, specialty)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		ref, err := s.FindNextSlot(ctx, doc.ID, fromDate, fromTime)
		if err != nil {
			return nil, err
		}
		if ref != nil {
			return ref, nil
		}
	}

	return nil, nil
}

// DeleteByDoctor removes every availability record for a doctor. Called when
// the doctor is deleted.
func (s *Service) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	return s.repo.DeleteByDoctor(ctx, doctorID)
}

// findSlot locates the slot covering exactly [clock, clock+30m) in the wanted
// availability state. Returns -1 when absent.
func findSlot(slots []TimeSlot, clock Clock, wantAvailable bool) int {
	start := clock.String()
	end := clock.Add(SlotMinutes).String()

	for i, slot := range slots {
		if slot.StartTime == start && slot.EndTime == end && slot.Available == wantAvailable {
			return i
		}
	}
	return -1
}

// findHeldSlot locates the booked slot at clock held by the given appointment.
// Returns -1 when absent.
func findHeldSlot(slots []TimeSlot, clock Clock, appointmentID uuid.UUID) int {
	start := clock.String()

	for i, slot := range slots {
		if slot.StartTime == start && !slot.Available &&
			slot.AppointmentID != nil && *slot.AppointmentID == appointmentID {
			return i
		}
	}
	return -1
}

// earliestOpenFrom returns the smallest open start time >= from. Slots from
// overlapping templates are not globally sorted, so this scans for the
// minimum instead of taking the first hit.
func earliestOpenFrom(slots []TimeSlot, from string) (string, bool) {
	best := ""
	for _, slot := range slots {
		if !slot.Available || slot.StartTime < from {
			continue
		}
		if best == "" || slot.StartTime < best {
			best = slot.StartTime
		}
	}
	return best, best != ""
}
