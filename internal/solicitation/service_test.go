package solicitation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/medbook/appointment-booking/internal/availability"
	"github.com/medbook/appointment-booking/internal/doctor"
)

// memRepo mirrors the SQL repository's semantics in a map: Create forces
// PENDING, UpdateStatus is a compare-and-set, reads hand out copies.
type memRepo struct {
	rows map[uuid.UUID]*Solicitation
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[uuid.UUID]*Solicitation)}
}

func copySolicitation(s *Solicitation) *Solicitation {
	out := *s
	return &out
}

func (r *memRepo) Create(_ context.Context, s *Solicitation) (*Solicitation, error) {
	stored := copySolicitation(s)
	stored.ID = uuid.New()
	stored.Status = StatusPending
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.rows[stored.ID] = stored
	return copySolicitation(stored), nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Solicitation, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, ErrSolicitationNotFound
	}
	return copySolicitation(row), nil
}

func (r *memRepo) GetByIDAndStatus(_ context.Context, id uuid.UUID, status Status) (*Solicitation, error) {
	row, ok := r.rows[id]
	if !ok || row.Status != status {
		return nil, ErrSolicitationNotFound
	}
	return copySolicitation(row), nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Solicitation, error) {
	row, ok := r.rows[id]
	if !ok || row.Status != from {
		return nil, ErrSolicitationNotFound
	}
	row.Status = to
	row.UpdatedAt = time.Now()
	return copySolicitation(row), nil
}

func (r *memRepo) Update(_ context.Context, s *Solicitation) (*Solicitation, error) {
	row, ok := r.rows[s.ID]
	if !ok {
		return nil, ErrSolicitationNotFound
	}
	updated := copySolicitation(s)
	updated.CreatedAt = row.CreatedAt
	updated.UpdatedAt = time.Now()
	r.rows[s.ID] = updated
	return copySolicitation(updated), nil
}

func (r *memRepo) ListByStatus(_ context.Context, status Status, limit, offset int) ([]Solicitation, int, error) {
	var matched []Solicitation
	for _, row := range r.rows {
		if row.Status == status {
			matched = append(matched, *row)
		}
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *memRepo) FindStaleProcessing(_ context.Context, cutoff time.Time) ([]Solicitation, error) {
	var out []Solicitation
	for _, row := range r.rows {
		if row.Status == StatusProcessing && row.UpdatedAt.Before(cutoff) {
			out = append(out, *row)
		}
	}
	return out, nil
}

// stubAllocator scripts slot availability per (doctor, date, time) key and
// tracks which appointment holds every booked slot.
type stubAllocator struct {
	open     map[string]bool
	held     map[string]uuid.UUID
	next     *availability.SlotRef
	nextOpen bool
	booked   []string
	releases int
}

func newStubAllocator() *stubAllocator {
	return &stubAllocator{
		open: make(map[string]bool),
		held: make(map[string]uuid.UUID),
	}
}

func slotKey(doctorID uuid.UUID, date time.Time, start string) string {
	return doctorID.String() + "|" + date.Format(availability.DateFormat) + "|" + start
}

func (a *stubAllocator) setOpen(doctorID uuid.UUID, date time.Time, start string) {
	a.open[slotKey(doctorID, date, start)] = true
}

func (a *stubAllocator) suggest(ref *availability.SlotRef, bookable bool) {
	a.next = ref
	a.nextOpen = bookable
	if ref != nil && bookable {
		a.open[slotKey(ref.DoctorID, ref.Date, ref.StartTime)] = true
	}
}

func (a *stubAllocator) IsAvailable(_ context.Context, doctorID uuid.UUID, date time.Time, start string) (bool, error) {
	return a.open[slotKey(doctorID, date, start)], nil
}

func (a *stubAllocator) Book(_ context.Context, doctorID uuid.UUID, date time.Time, start string, appointmentID uuid.UUID) (bool, error) {
	key := slotKey(doctorID, date, start)
	if !a.open[key] {
		return false, nil
	}
	delete(a.open, key)
	a.held[key] = appointmentID
	a.booked = append(a.booked, key)
	return true, nil
}

func (a *stubAllocator) Release(_ context.Context, doctorID uuid.UUID, date time.Time, start string, appointmentID uuid.UUID) (bool, error) {
	key := slotKey(doctorID, date, start)
	if a.held[key] != appointmentID {
		return false, nil
	}
	delete(a.held, key)
	a.open[key] = true
	a.releases++
	return true, nil
}

// heldBy lists the slots currently booked under an appointment id.
func (a *stubAllocator) heldBy(appointmentID uuid.UUID) []string {
	var out []string
	for key, id := range a.held {
		if id == appointmentID {
			out = append(out, key)
		}
	}
	return out
}

func (a *stubAllocator) FindNextSlotBySpecialty(_ context.Context, _ string, _ time.Time, _ string) (*availability.SlotRef, error) {
	return a.next, nil
}

// fakeQueue collects enqueued ids instead of pushing to Redis.
type fakeQueue struct {
	ids []uuid.UUID
}

func (q *fakeQueue) Enqueue(_ context.Context, id uuid.UUID) error {
	q.ids = append(q.ids, id)
	return nil
}

func (q *fakeQueue) Dequeue(_ context.Context, _ time.Duration) (uuid.UUID, error) {
	if len(q.ids) == 0 {
		return uuid.Nil, nil
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id, nil
}

type fixture struct {
	svc     *Service
	repo    *memRepo
	doctors *memDoctorRepo
	slots   *stubAllocator
	queue   *fakeQueue
}

type memDoctorRepo struct {
	docs []doctor.Doctor
}

func (r *memDoctorRepo) Create(_ context.Context, d *doctor.Doctor) (*doctor.Doctor, error) {
	d.ID = uuid.New()
	r.docs = append(r.docs, *d)
	return d, nil
}

func (r *memDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	for i := range r.docs {
		if r.docs[i].ID == id {
			d := r.docs[i]
			return &d, nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

func (r *memDoctorRepo) Update(_ context.Context, d *doctor.Doctor) (*doctor.Doctor, error) {
	return d, nil
}

func (r *memDoctorRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (r *memDoctorRepo) List(_ context.Context) ([]doctor.Doctor, error) {
	return append([]doctor.Doctor(nil), r.docs...), nil
}

func (r *memDoctorRepo) ListBySpecialty(_ context.Context, specialty string) ([]doctor.Doctor, error) {
	var out []doctor.Doctor
	for _, d := range r.docs {
		if d.Specialty == specialty {
			out = append(out, d)
		}
	}
	return out, nil
}

func newFixture(t *testing.T, docs ...doctor.Doctor) *fixture {
	t.Helper()
	f := &fixture{
		repo:    newMemRepo(),
		doctors: &memDoctorRepo{},
		slots:   newStubAllocator(),
		queue:   &fakeQueue{},
	}
	for i := range docs {
		_, err := f.doctors.Create(context.Background(), &docs[i])
		require.NoError(t, err)
	}
	f.svc = NewService(f.repo, f.doctors, f.slots, f.queue, zerolog.Nop())
	return f
}

var requestedDate = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func newRequest(specialty string) *Solicitation {
	return &Solicitation{
		PatientName:   "Alice Brown",
		PatientAge:    34,
		PatientPhone:  "+1-555-0100",
		PatientEmail:  "alice@example.com",
		Specialty:     specialty,
		RequestedDate: requestedDate,
		RequestedTime: "09:00",
	}
}

func cardiologist(name string) doctor.Doctor {
	return doctor.Doctor{Name: name, Specialty: "Cardiology"}
}

func TestSubmitStoresPendingAndEnqueues(t *testing.T) {
	f := newFixture(t, cardiologist("Dr. Heart"))

	saved, err := f.svc.Submit(context.Background(), newRequest("Cardiology"))
	require.NoError(t, err)

	require.Equal(t, StatusPending, saved.Status)
	require.Nil(t, saved.DoctorID)
	require.Equal(t, []uuid.UUID{saved.ID}, f.queue.ids)
}

func TestSubmitFailsFastWithoutSpecialtyDoctors(t *testing.T) {
	f := newFixture(t, cardiologist("Dr. Heart"))

	_, err := f.svc.Submit(context.Background(), newRequest("Dermatology"))
	require.ErrorIs(t, err, ErrNoDoctorsForSpecialty)

	// Nothing stored, nothing enqueued.
	require.Empty(t, f.repo.rows)
	require.Empty(t, f.queue.ids)
}

func TestProcessConfirmsRequestedSlot(t *testing.T) {
	f := newFixture(t, cardiologist("Dr. Heart"))
	ctx := context.Background()

	saved, err := f.svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)

	docID := f.doctors.docs[0].ID
	f.slots.setOpen(docID, requestedDate, "09:00")

	result, err := f.svc.Process(ctx, saved.ID)
	require.NoError(t, err)

	require.Equal(t, StatusConfirmed, result.Status)
	require.NotNil(t, result.DoctorID)
	require.Equal(t, docID, *result.DoctorID)
	require.Nil(t, result.SuggestedDate)
	require.Equal(t, []string{slotKey(docID, requestedDate, "09:00")}, f.slots.booked)
}

func TestProcessTriesEachDoctorForRequestedSlot(t *testing.T) {
	f := newFixture(t, cardiologist("Dr. First"), cardiologist("Dr. Second"))
	ctx := context.Background()

	saved, err := f.svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)

	// Only the second doctor has the requested slot open.
	secondID := f.doctors.docs[1].ID
	f.slots.setOpen(secondID, requestedDate, "09:00")

	result, err := f.svc.Process(ctx, saved.ID)
	require.NoError(t, err)

	require.Equal(t, StatusConfirmed, result.Status)
	require.Equal(t, secondID, *result.DoctorID)
}

func TestProcessSuggestsAlternative(t *testing.T) {
	f := newFixture(t, cardiologist("Dr. Heart"))
	ctx := context.Background()

	saved, err := f.svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)

	docID := f.doctors.docs[0].ID
	altDate := requestedDate.AddDate(0, 0, 2)
	f.slots.suggest(&availability.SlotRef{DoctorID: docID, Date: altDate, StartTime: "10:30"}, true)

	result, err := f.svc.Process(ctx, saved.ID)
	require.NoError(t, err)

	require.Equal(t, StatusSuggested, result.Status)
	require.Equal(t, docID, *result.DoctorID)
	require.Equal(t, altDate, *result.SuggestedDate)
	require.Equal(t, "10:30", *result.SuggestedTime)

	// The alternative is booked up front, before the patient decides.
	require.Equal(t, []string{slotKey(docID, altDate, "10:30")}, f.slots.booked)
}

func TestProcessRejectsWhenHorizonEmpty(t *testing.T) {
	f := newFixture(t, cardiologist("Dr. Heart"))
	ctx := context.Background()

	saved, err := f.svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)

	result, err := f.svc.Process(ctx, saved.ID)
	require.NoError(t, err)

	require.Equal(t, StatusRejected, result.Status)
	require.Nil(t, result.DoctorID)
}

func TestProcessRejectsWhenDoctorsDisappeared(t *testing.T) {
	f := newFixture(t, cardiologist("Dr. Heart"))
	ctx := context.Background()

	saved, err := f.svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)

	f.doctors.docs = nil

	result, err := f.svc.Process(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, result.Status)
}

func TestProcessIgnoresNonPending(t *testing.T) {
	f := newFixture(t, cardiologist("Dr. Heart"))
	ctx := context.Background()

	saved, err := f.svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)

	docID := f.doctors.docs[0].ID
	f.slots.setOpen(docID, requestedDate, "09:00")

	first, err := f.svc.Process(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, first.Status)

	// A duplicate trigger delivery must not rebook or change anything.
	f.slots.setOpen(docID, requestedDate, "09:00")
	second, err := f.svc.Process(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, second.Status)
	require.Len(t, f.slots.booked, 1)
}

func TestProcessErrorsWhenAlternativeTaken(t *testing.T) {
	f := newFixture(t, cardiologist("Dr. Heart"))
	ctx := context.Background()

	saved, err := f.svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)

	docID := f.doctors.docs[0].ID
	// The search returns a slot that is already gone by booking time.
	f.slots.suggest(&availability.SlotRef{DoctorID: docID, Date: requestedDate, StartTime: "11:00"}, false)

	_, err = f.svc.Process(ctx, saved.ID)
	require.Error(t, err)

	// The row stays in PROCESSING for the caller's retry path.
	row, getErr := f.repo.GetByID(ctx, saved.ID)
	require.NoError(t, getErr)
	require.Equal(t, StatusProcessing, row.Status)
}

// failConfirmOnce fails the first write that would mark the row CONFIRMED, as
// if the worker died between booking the slot and persisting the status.
type failConfirmOnce struct {
	*memRepo
	fired bool
}

func (r *failConfirmOnce) Update(ctx context.Context, s *Solicitation) (*Solicitation, error) {
	if !r.fired && s.Status == StatusConfirmed {
		r.fired = true
		return nil, errors.New("connection reset")
	}
	return r.memRepo.Update(ctx, s)
}

func TestProcessRetryReleasesEarlierBooking(t *testing.T) {
	repo := &failConfirmOnce{memRepo: newMemRepo()}
	doctors := &memDoctorRepo{}
	slots := newStubAllocator()
	queue := &fakeQueue{}
	svc := NewService(repo, doctors, slots, queue, zerolog.Nop())
	ctx := context.Background()

	doc := cardiologist("Dr. Heart")
	_, err := doctors.Create(ctx, &doc)
	require.NoError(t, err)

	saved, err := svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)

	docID := doctors.docs[0].ID
	slots.setOpen(docID, requestedDate, "09:00")

	// The slot gets booked, then the status write fails.
	_, err = svc.Process(ctx, saved.ID)
	require.Error(t, err)
	require.Len(t, slots.heldBy(saved.ID), 1)

	require.NoError(t, svc.Reprocess(ctx, saved.ID))

	result, err := svc.Process(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, result.Status)

	// The earlier booking was released before rebooking, so exactly one slot
	// stays held under this solicitation.
	require.Len(t, slots.heldBy(saved.ID), 1)
	require.Equal(t, 1, slots.releases)
}

func suggestedFixture(t *testing.T) (*fixture, uuid.UUID) {
	t.Helper()
	f := newFixture(t, cardiologist("Dr. Heart"))
	ctx := context.Background()

	saved, err := f.svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)

	docID := f.doctors.docs[0].ID
	altDate := requestedDate.AddDate(0, 0, 1)
	f.slots.suggest(&availability.SlotRef{DoctorID: docID, Date: altDate, StartTime: "14:00"}, true)

	result, err := f.svc.Process(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSuggested, result.Status)

	return f, saved.ID
}

func TestConfirmSuggestionAccept(t *testing.T) {
	f, id := suggestedFixture(t)

	result, err := f.svc.ConfirmSuggestion(context.Background(), id, true)
	require.NoError(t, err)

	require.Equal(t, StatusConfirmed, result.Status)
	// Acceptance keeps the suggestion record; the slot was booked already.
	require.NotNil(t, result.SuggestedDate)
	require.NotNil(t, result.SuggestedTime)
	require.Len(t, f.slots.booked, 1)
}

func TestConfirmSuggestionDecline(t *testing.T) {
	f, id := suggestedFixture(t)

	result, err := f.svc.ConfirmSuggestion(context.Background(), id, false)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, result.Status)
}

func TestConfirmSuggestionGuardsNonSuggested(t *testing.T) {
	f := newFixture(t, cardiologist("Dr. Heart"))
	ctx := context.Background()

	saved, err := f.svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)

	// Still PENDING; both decisions must hit the guard.
	_, err = f.svc.ConfirmSuggestion(ctx, saved.ID, true)
	require.ErrorIs(t, err, ErrNoSuggestedSolicitation)

	_, err = f.svc.ConfirmSuggestion(ctx, saved.ID, false)
	require.ErrorIs(t, err, ErrNoSuggestedSolicitation)

	_, err = f.svc.ConfirmSuggestion(ctx, uuid.New(), true)
	require.ErrorIs(t, err, ErrNoSuggestedSolicitation)
}

func TestReprocessResetsAndReenqueues(t *testing.T) {
	f := newFixture(t, cardiologist("Dr. Heart"))
	ctx := context.Background()

	saved, err := f.svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)

	_, err = f.repo.UpdateStatus(ctx, saved.ID, StatusPending, StatusProcessing)
	require.NoError(t, err)
	f.queue.ids = nil

	require.NoError(t, f.svc.Reprocess(ctx, saved.ID))

	row, err := f.repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, row.Status)
	require.Equal(t, []uuid.UUID{saved.ID}, f.queue.ids)
}

func TestSweepStaleProcessing(t *testing.T) {
	f := newFixture(t, cardiologist("Dr. Heart"))
	ctx := context.Background()

	stale, err := f.svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)
	fresh, err := f.svc.Submit(ctx, newRequest("Cardiology"))
	require.NoError(t, err)

	for _, id := range []uuid.UUID{stale.ID, fresh.ID} {
		_, err = f.repo.UpdateStatus(ctx, id, StatusPending, StatusProcessing)
		require.NoError(t, err)
	}
	f.repo.rows[stale.ID].UpdatedAt = time.Now().Add(-time.Hour)
	f.queue.ids = nil

	swept, err := f.svc.SweepStaleProcessing(ctx, 10*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, swept)

	staleRow, err := f.repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, staleRow.Status)

	freshRow, err := f.repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, freshRow.Status)

	require.Equal(t, []uuid.UUID{stale.ID}, f.queue.ids)
}

func TestListSuggestedClampsPaging(t *testing.T) {
	f, _ := suggestedFixture(t)

	items, total, err := f.svc.ListSuggested(context.Background(), -5, -1)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, items, 1)
	require.Equal(t, StatusSuggested, items[0].Status)
}
