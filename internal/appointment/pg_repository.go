package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgExclusionViolation = "23P01"

	appointmentColumns = `id, practitioner_id, client_id, session_type_id, series_id, session_number,
		starts_at, ends_at, status, payment_status, created_at, updated_at`
	seriesColumns = `id, practitioner_id, client_id, total_sessions, current_session, status,
		started_at, completed_at, created_at, updated_at`
	timeBlockColumns = `id, practitioner_id, title, starts_at, ends_at, notes, created_at, updated_at`
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanClient(row pgx.Row) (*Client, error) {
	var c Client

	err := row.Scan(
		&c.ID,
		&c.PractitionerID,
		&c.Name,
		&c.Email,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanSessionType(row pgx.Row) (*SessionType, error) {
	var st SessionType

	err := row.Scan(
		&st.ID,
		&st.PractitionerID,
		&st.Name,
		&st.DurationMinutes,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionTypeNotFound
		}
		return nil, err
	}
	return &st, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PractitionerID,
		&a.ClientID,
		&a.SessionTypeID,
		&a.SeriesID,
		&a.SessionNumber,
		&a.StartsAt,
		&a.EndsAt,
		&a.Status,
		&a.PaymentStatus,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanSeries(row pgx.Row) (*Series, error) {
	var s Series

	err := row.Scan(
		&s.ID,
		&s.PractitionerID,
		&s.ClientID,
		&s.TotalSessions,
		&s.CurrentSession,
		&s.Status,
		&s.StartedAt,
		&s.CompletedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSeriesNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanTimeBlock(row pgx.Row) (*TimeBlock, error) {
	var b TimeBlock

	err := row.Scan(
		&b.ID,
		&b.PractitionerID,
		&b.Title,
		&b.StartsAt,
		&b.EndsAt,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTimeBlockNotFound
		}
		return nil, err
	}
	return &b, nil
}

// mapWriteError turns the appointments exclusion constraint into
// ErrSlotConflict; everything else is passed through.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return ErrSlotConflict
	}
	return err
}

// Interface methods

func (r *PgRepository) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, practitioner_id, name, email, created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id)
	return scanClient(row)
}

func (r *PgRepository) GetSessionTypeByID(ctx context.Context, id uuid.UUID) (*SessionType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, practitioner_id, name, duration_minutes, created_at, updated_at
		FROM session_types
		WHERE id = $1
	`, id)
	return scanSessionType(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsInRange(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE practitioner_id = $1
		  AND starts_at < $3
		  AND ends_at > $2
		ORDER BY starts_at
	`, practitionerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, practitioner_id, client_id, session_type_id, series_id, session_number,
		                          starts_at, ends_at, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+appointmentColumns,
		id, a.PractitionerID, a.ClientID, a.SessionTypeID, a.SeriesID, a.SessionNumber,
		a.StartsAt, a.EndsAt, string(a.Status), string(a.PaymentStatus))

	created, err := scanAppointment(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

// UpdateAppointmentStatus only succeeds while the row is still in status
// from; otherwise ErrAppointmentNotFound is returned.
func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns,
		id, string(to), string(from))

	return scanAppointment(row)
}

func (r *PgRepository) RescheduleAppointment(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET starts_at = $2,
		    ends_at = $3,
		    updated_at = now()
		WHERE id = $1
		  AND status IN ('requested', 'confirmed', 'checked_in')
		RETURNING `+appointmentColumns,
		id, startsAt, endsAt)

	moved, err := scanAppointment(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return moved, nil
}

func (r *PgRepository) GetSeriesByID(ctx context.Context, id uuid.UUID) (*Series, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+seriesColumns+`
		FROM series
		WHERE id = $1
	`, id)
	return scanSeries(row)
}

func (r *PgRepository) CreateSeries(ctx context.Context, s Series) (*Series, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO series (id, practitioner_id, client_id, total_sessions, current_session, status,
		                    started_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+seriesColumns,
		id, s.PractitionerID, s.ClientID, s.TotalSessions, s.CurrentSession, string(s.Status), s.StartedAt)

	return scanSeries(row)
}

func (r *PgRepository) UpdateSeries(ctx context.Context, id uuid.UUID, upd SeriesUpdate) (*Series, error) {
	var status *string
	if upd.Status != nil {
		v := string(*upd.Status)
		status = &v
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE series
		SET current_session = CASE
		        WHEN $5::int IS NOT NULL THEN GREATEST(current_session, $5::int)
		        ELSE COALESCE($2, current_session)
		    END,
		    status = COALESCE($3, status),
		    completed_at = COALESCE($4, completed_at),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+seriesColumns,
		id, upd.CurrentSession, status, upd.CompletedAt, upd.AdvanceTo)

	return scanSeries(row)
}

func (r *PgRepository) GetTimeBlockByID(ctx context.Context, id uuid.UUID) (*TimeBlock, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+timeBlockColumns+`
		FROM time_blocks
		WHERE id = $1
	`, id)
	return scanTimeBlock(row)
}

func (r *PgRepository) ListTimeBlocksInRange(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]TimeBlock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+timeBlockColumns+`
		FROM time_blocks
		WHERE practitioner_id = $1
		  AND starts_at < $3
		  AND ends_at > $2
		ORDER BY starts_at
	`, practitionerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TimeBlock
	for rows.Next() {
		b, err := scanTimeBlock(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// CreateTimeBlocks inserts all rows in one transaction; a multi-day block is
// stored completely or not at all.
func (r *PgRepository) CreateTimeBlocks(ctx context.Context, blocks []TimeBlock) ([]TimeBlock, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, b := range blocks {
		batch.Queue(`
			INSERT INTO time_blocks (id, practitioner_id, title, starts_at, ends_at, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			RETURNING `+timeBlockColumns,
			uuid.New(), b.PractitionerID, b.Title, b.StartsAt, b.EndsAt, b.Notes)
	}

	results := tx.SendBatch(ctx, batch)
	created := make([]TimeBlock, 0, len(blocks))
	for range blocks {
		b, err := scanTimeBlock(results.QueryRow())
		if err != nil {
			_ = results.Close()
			return nil, fmt.Errorf("insert time block: %w", err)
		}
		created = append(created, *b)
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return created, nil
}

func (r *PgRepository) UpdateTimeBlock(ctx context.Context, b TimeBlock) (*TimeBlock, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE time_blocks
		SET title = $2,
		    starts_at = $3,
		    ends_at = $4,
		    notes = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+timeBlockColumns,
		b.ID, b.Title, b.StartsAt, b.EndsAt, b.Notes)

	return scanTimeBlock(row)
}

func (r *PgRepository) DeleteTimeBlock(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM time_blocks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTimeBlockNotFound
	}
	return nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
