package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hackgods/practice-calendar/internal/calendar"
	"github.com/hackgods/practice-calendar/internal/config"
	"github.com/hackgods/practice-calendar/internal/db"
	"github.com/hackgods/practice-calendar/internal/logger"
)

type sessionType struct {
	name     string
	duration int
}

var sessionTypes = []sessionType{
	{"Initial consultation", 90},
	{"Follow-up", 60},
	{"Short review", 30},
	{"Deep tissue", 75},
	{"Acupuncture", 45},
}

func main() {
	practitioners := flag.Int("practitioners", 3, "number of practitioners to seed")
	clientsPer := flag.Int("clients", 40, "clients per practitioner")
	days := flag.Int("days", 14, "days of appointments starting today")
	flag.Parse()

	if *clientsPer < 2 {
		fmt.Fprintln(os.Stderr, "need at least 2 clients per practitioner")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{})
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	s := &seeder{
		faker: gofakeit.New(0),
		cal:   cfg.Calendar,
		log:   log,
	}

	for i := 0; i < *practitioners; i++ {
		practitionerID := uuid.New()

		tx, err := pool.Begin(ctx)
		if err != nil {
			log.Fatal("begin transaction", zap.Error(err))
		}
		if err := s.seedPractitioner(ctx, tx, practitionerID, *clientsPer, *days); err != nil {
			_ = tx.Rollback(ctx)
			log.Fatal("seed practitioner", zap.String("practitioner_id", practitionerID.String()), zap.Error(err))
		}
		if err := tx.Commit(ctx); err != nil {
			log.Fatal("commit", zap.Error(err))
		}

		log.Info("practitioner seeded",
			zap.String("practitioner_id", practitionerID.String()),
			zap.Int("progress", i+1),
			zap.Int("total", *practitioners),
		)
	}

	log.Info("seed complete")
}

type seeder struct {
	faker *gofakeit.Faker
	cal   config.Calendar
	log   *zap.Logger
}

func (s *seeder) seedPractitioner(ctx context.Context, tx pgx.Tx, practitionerID uuid.UUID, clientCount, days int) error {
	clients := make([]uuid.UUID, clientCount)
	for i := range clients {
		clients[i] = uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO clients (id, practitioner_id, name, email, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, clients[i], practitionerID, s.faker.Name(), s.faker.Email())
		if err != nil {
			return fmt.Errorf("insert client: %w", err)
		}
	}

	typeIDs := make([]uuid.UUID, len(sessionTypes))
	for i, st := range sessionTypes {
		typeIDs[i] = uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO session_types (id, practitioner_id, name, duration_minutes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, typeIDs[i], practitionerID, st.name, st.duration)
		if err != nil {
			return fmt.Errorf("insert session type: %w", err)
		}
	}

	// one ten-session series for the first client, one session per day at
	// the start of the booking window
	seriesID := uuid.New()
	seriesClient := clients[0]
	seriesLength := min(10, days)
	_, err := tx.Exec(ctx, `
		INSERT INTO series (id, practitioner_id, client_id, total_sessions, current_session, status, started_at, created_at, updated_at)
		VALUES ($1, $2, $3, 10, $4, 'active', now(), now(), now())
	`, seriesID, practitionerID, seriesClient, seriesLength)
	if err != nil {
		return fmt.Errorf("insert series: %w", err)
	}

	today := calendar.StartOfDay(time.Now().In(s.cal.Location))
	for d := 0; d < days; d++ {
		day := today.AddDate(0, 0, d)

		// lunch break
		_, err := tx.Exec(ctx, `
			INSERT INTO time_blocks (id, practitioner_id, title, starts_at, ends_at, created_at, updated_at)
			VALUES ($1, $2, 'Lunch', $3, $4, now(), now())
		`, uuid.New(), practitionerID, calendar.At(day, 12*60), calendar.At(day, 13*60))
		if err != nil {
			return fmt.Errorf("insert time block: %w", err)
		}

		minute := s.cal.BookingStart
		if d < seriesLength {
			session := d + 1
			if err := s.insertAppointment(ctx, tx, practitionerID, seriesClient, typeIDs[1], &seriesID, &session, day, minute, sessionTypes[1].duration); err != nil {
				return err
			}
			minute += sessionTypes[1].duration
		}

		for {
			// leave a gap of 0-2 slots between bookings
			minute += s.faker.Number(0, 2) * s.cal.SlotMinutes
			idx := s.faker.Number(0, len(sessionTypes)-1)
			duration := sessionTypes[idx].duration

			if minute < 13*60 && minute+duration > 12*60 {
				minute = 13 * 60
			}
			if minute+duration > s.cal.BookingEnd {
				break
			}

			client := clients[s.faker.Number(1, len(clients)-1)]
			if err := s.insertAppointment(ctx, tx, practitionerID, client, typeIDs[idx], nil, nil, day, minute, duration); err != nil {
				return err
			}
			minute += duration
		}
	}

	return nil
}

func (s *seeder) insertAppointment(ctx context.Context, tx pgx.Tx, practitionerID, clientID, typeID uuid.UUID, seriesID *uuid.UUID, session *int, day time.Time, minute, duration int) error {
	status := s.faker.RandomString([]string{"requested", "confirmed", "confirmed", "confirmed"})
	startsAt := calendar.At(day, minute)

	_, err := tx.Exec(ctx, `
		INSERT INTO appointments (id, practitioner_id, client_id, session_type_id, series_id, session_number,
		                          starts_at, ends_at, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'unpaid', now(), now())
	`, uuid.New(), practitionerID, clientID, typeID, seriesID, session,
		startsAt, startsAt.Add(time.Duration(duration)*time.Minute), status)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}
