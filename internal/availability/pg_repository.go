package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAvailability(row pgx.Row) (*DoctorAvailability, error) {
	var a DoctorAvailability
	var slots []byte

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.Date,
		&slots,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAvailabilityNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(slots, &a.TimeSlots); err != nil {
		return nil, fmt.Errorf("decode time slots: %w", err)
	}

	return &a, nil
}

func (r *PgRepository) Insert(ctx context.Context, a *DoctorAvailability) (*DoctorAvailability, error) {
	id := uuid.New()

	slots, err := json.Marshal(a.TimeSlots)
	if err != nil {
		return nil, fmt.Errorf("encode time slots: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctor_availabilities (id, doctor_id, date, time_slots, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, now(), now())
		RETURNING id, doctor_id, date, time_slots, version, created_at, updated_at
	`, id, a.DoctorID, a.Date, slots)

	return scanAvailability(row)
}

func (r *PgRepository) GetByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DoctorAvailability, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, date, time_slots, version, created_at, updated_at
		FROM doctor_availabilities
		WHERE doctor_id = $1 AND date = $2
	`, doctorID, date)
	return scanAvailability(row)
}

func (r *PgRepository) UpdateSlots(ctx context.Context, a *DoctorAvailability) (*DoctorAvailability, error) {
	slots, err := json.Marshal(a.TimeSlots)
	if err != nil {
		return nil, fmt.Errorf("encode time slots: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE doctor_availabilities
		SET time_slots = $3,
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1
		  AND version = $2
		RETURNING id, doctor_id, date, time_slots, version, created_at, updated_at
	`, a.ID, a.Version, slots)

	updated, err := scanAvailability(row)
	if err != nil {
		if errors.Is(err, ErrAvailabilityNotFound) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}

	return updated, nil
}

func (r *PgRepository) DeleteRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM doctor_availabilities
		WHERE doctor_id = $1
		  AND date BETWEEN $2 AND $3
	`, doctorID, from, to)
	if err != nil {
		return fmt.Errorf("delete availability range: %w", err)
	}
	return nil
}

func (r *PgRepository) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM doctor_availabilities
		WHERE doctor_id = $1
	`, doctorID)
	if err != nil {
		return fmt.Errorf("delete doctor availabilities: %w", err)
	}
	return nil
}
