package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var schedule []byte

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialty,
		&schedule,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(schedule, &d.Schedule); err != nil {
		return nil, fmt.Errorf("decode doctor schedule: %w", err)
	}

	return &d, nil
}

func (r *PgRepository) Create(ctx context.Context, d *Doctor) (*Doctor, error) {
	id := uuid.New()

	schedule, err := json.Marshal(d.Schedule)
	if err != nil {
		return nil, fmt.Errorf("encode doctor schedule: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, name, specialty, schedule, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, name, specialty, schedule, created_at, updated_at
	`, id, d.Name, d.Specialty, schedule)

	return scanDoctor(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, schedule, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) Update(ctx context.Context, d *Doctor) (*Doctor, error) {
	schedule, err := json.Marshal(d.Schedule)
	if err != nil {
		return nil, fmt.Errorf("encode doctor schedule: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET name = $2,
		    specialty = $3,
		    schedule = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, specialty, schedule, created_at, updated_at
	`, d.ID, d.Name, d.Specialty, schedule)

	return scanDoctor(row)
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) List(ctx context.Context) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, specialty, schedule, created_at, updated_at
		FROM doctors
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDoctors(rows)
}

func (r *PgRepository) ListBySpecialty(ctx context.Context, specialty string) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, specialty, schedule, created_at, updated_at
		FROM doctors
		WHERE specialty = $1
		ORDER BY created_at
	`, specialty)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDoctors(rows)
}

func collectDoctors(rows pgx.Rows) ([]Doctor, error) {
	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
