package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/aftercare-bot/internal/domain"
)

// AppointmentRepository encapsulates appointment persistence.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *domain.Appointment) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Appointment, error)
	ListByStatus(ctx context.Context, status domain.AppointmentStatus, limit int) ([]domain.Appointment, error)
	ListAll(ctx context.Context) ([]domain.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status domain.AppointmentStatus) error
	CountByStatus(ctx context.Context) (map[domain.AppointmentStatus]int, error)
}

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository instantiates repository.
func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

const appointmentColumns = `id, user_id, user_name, contact, kind, date, time, comment, status, created_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *domain.Appointment) error {
	const query = `
        INSERT INTO appointments (id, user_id, user_name, contact, kind, date, time, comment, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		appointment.ID,
		appointment.UserID,
		appointment.UserName,
		appointment.Contact,
		appointment.Kind,
		appointment.Date,
		appointment.Time,
		appointment.Comment,
		appointment.Status,
	).Scan(&appointment.CreatedAt)
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	const query = `SELECT ` + appointmentColumns + ` FROM appointments WHERE id=$1`
	return scanAppointment(r.pool.QueryRow(ctx, query, id))
}

func (r *appointmentRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Appointment, error) {
	const query = `SELECT ` + appointmentColumns + `
        FROM appointments WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *appointmentRepository) ListByStatus(ctx context.Context, status domain.AppointmentStatus, limit int) ([]domain.Appointment, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ` + appointmentColumns + `
        FROM appointments WHERE status=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *appointmentRepository) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	const query = `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id string, status domain.AppointmentStatus) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE appointments SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *appointmentRepository) CountByStatus(ctx context.Context) (map[domain.AppointmentStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.AppointmentStatus]int)
	for rows.Next() {
		var status domain.AppointmentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}
	return result, rows.Err()
}

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var a domain.Appointment
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.UserName,
		&a.Contact,
		&a.Kind,
		&a.Date,
		&a.Time,
		&a.Comment,
		&a.Status,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAppointments(rows pgx.Rows) ([]domain.Appointment, error) {
	var result []domain.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *appointment)
	}
	return result, rows.Err()
}
