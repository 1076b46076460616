package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/medbook/appointment-booking/internal/db"
	"github.com/medbook/appointment-booking/internal/doctor"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "seed").Logger()
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedDoctors(context.Background(), pool, log, 100); err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}

	log.Info().Msg("seed complete")
}

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var weekdays = []doctor.DayOfWeek{
	doctor.Monday,
	doctor.Tuesday,
	doctor.Wednesday,
	doctor.Thursday,
	doctor.Friday,
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, count int) error {
	log.Info().Int("count", count).Msg("seeding doctors")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		schedule, err := json.Marshal(randomSchedule())
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, schedule, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, name, spec, schedule)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info().Msg("doctors seeded")
	return nil
}

// randomSchedule builds a weekly schedule of 3 to 5 working weekdays, each
// with a morning window and usually an afternoon one.
func randomSchedule() []doctor.AvailabilityTemplate {
	days := gofakeit.Number(3, 5)
	picked := append([]doctor.DayOfWeek(nil), weekdays...)
	gofakeit.ShuffleAnySlice(picked)

	var schedule []doctor.AvailabilityTemplate
	for _, d := range picked[:days] {
		schedule = append(schedule, doctor.AvailabilityTemplate{
			DayOfWeek: d,
			StartTime: "09:00",
			EndTime:   "12:00",
		})
		if gofakeit.Bool() {
			schedule = append(schedule, doctor.AvailabilityTemplate{
				DayOfWeek: d,
				StartTime: "14:00",
				EndTime:   "17:00",
			})
		}
	}
	return schedule
}
