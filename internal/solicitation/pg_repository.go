package solicitation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const solicitationColumns = `
	id, patient_name, patient_age, patient_phone, patient_email,
	specialty, requested_date, requested_time, status,
	doctor_id, suggested_date, suggested_time, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanSolicitation(row pgx.Row) (*Solicitation, error) {
	var s Solicitation
	var doctorID *uuid.UUID
	var suggestedDate *time.Time
	var suggestedTime *string

	err := row.Scan(
		&s.ID,
		&s.PatientName,
		&s.PatientAge,
		&s.PatientPhone,
		&s.PatientEmail,
		&s.Specialty,
		&s.RequestedDate,
		&s.RequestedTime,
		&s.Status,
		&doctorID,
		&suggestedDate,
		&suggestedTime,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSolicitationNotFound
		}
		return nil, err
	}

	s.DoctorID = doctorID
	s.SuggestedDate = suggestedDate
	s.SuggestedTime = suggestedTime
	return &s, nil
}

func (r *PgRepository) Create(ctx context.Context, s *Solicitation) (*Solicitation, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointment_solicitations
			(id, patient_name, patient_age, patient_phone, patient_email,
			 specialty, requested_date, requested_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'PENDING', now(), now())
		RETURNING`+solicitationColumns,
		id, s.PatientName, s.PatientAge, s.PatientPhone, s.PatientEmail,
		s.Specialty, s.RequestedDate, s.RequestedTime)

	return scanSolicitation(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Solicitation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+solicitationColumns+`
		FROM appointment_solicitations
		WHERE id = $1
	`, id)
	return scanSolicitation(row)
}

func (r *PgRepository) GetByIDAndStatus(ctx context.Context, id uuid.UUID, status Status) (*Solicitation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+solicitationColumns+`
		FROM appointment_solicitations
		WHERE id = $1 AND status = $2
	`, id, status)
	return scanSolicitation(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Solicitation, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointment_solicitations
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING`+solicitationColumns,
		id, to, from)

	return scanSolicitation(row)
}

func (r *PgRepository) Update(ctx context.Context, s *Solicitation) (*Solicitation, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointment_solicitations
		SET status = $2,
		    doctor_id = $3,
		    suggested_date = $4,
		    suggested_time = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING`+solicitationColumns,
		s.ID, s.Status, s.DoctorID, s.SuggestedDate, s.SuggestedTime)

	return scanSolicitation(row)
}

func (r *PgRepository) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Solicitation, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointment_solicitations
		WHERE status = $1
	`, status).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count solicitations: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT`+solicitationColumns+`
		FROM appointment_solicitations
		WHERE status = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := collectSolicitations(rows)
	if err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *PgRepository) FindStaleProcessing(ctx context.Context, cutoff time.Time) ([]Solicitation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+solicitationColumns+`
		FROM appointment_solicitations
		WHERE status = 'PROCESSING'
		  AND updated_at < $1
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSolicitations(rows)
}

func collectSolicitations(rows pgx.Rows) ([]Solicitation, error) {
	var result []Solicitation
	for rows.Next() {
		s, err := scanSolicitation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
