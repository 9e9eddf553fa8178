package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/aftercare-bot/internal/domain"
)

// DayCount is one bucket of a per-day registration/activity aggregate.
type DayCount struct {
	Day   time.Time
	Count int
}

// UserStats is the aggregate snapshot rendered by the analytics panel.
type UserStats struct {
	Total          int
	WithTattooDate int
	WithQuestions  int
	ActiveWeek     int
	ActiveToday    int
	Admins         int
	NewThisWeek    int
}

// UserRepository defines persistence access for bot users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	ListByAudience(ctx context.Context, audience domain.Audience) ([]domain.User, error)
	ListAdmins(ctx context.Context) ([]domain.User, error)
	CountAll(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*UserStats, error)
	RegistrationsByDay(ctx context.Context, days int) ([]DayCount, error)
	TouchLastActive(ctx context.Context, id int64) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, username, first_name, last_name, tattoo_date, stage,
               questions, is_admin, admin_permissions, appointment_draft,
               last_active, created_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	questions, perms, draft, err := marshalUserDocs(user)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO users (id, username, first_name, last_name, tattoo_date, stage,
                           questions, is_admin, admin_permissions, appointment_draft)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING last_active, created_at`

	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.TattooDate,
		user.Stage,
		questions,
		user.IsAdmin,
		perms,
		draft,
	).Scan(&user.LastActive, &user.CreatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	questions, perms, draft, err := marshalUserDocs(user)
	if err != nil {
		return err
	}
	const query = `
        UPDATE users SET username=$1, first_name=$2, last_name=$3, tattoo_date=$4,
            stage=$5, questions=$6, is_admin=$7, admin_permissions=$8,
            appointment_draft=$9, last_active=NOW()
        WHERE id=$10`

	cmd, err := r.pool.Exec(ctx, query,
		user.Username,
		user.FirstName,
		user.LastName,
		user.TattooDate,
		user.Stage,
		questions,
		user.IsAdmin,
		perms,
		draft,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id=$1`, userColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanUser(row)
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		userColumns, limit, offset)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) ListByAudience(ctx context.Context, audience domain.Audience) ([]domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY id`,
		userColumns, audienceClause(audience))
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE is_admin ORDER BY id`, userColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepository) Stats(ctx context.Context) (*UserStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE tattoo_date IS NOT NULL),
               COUNT(*) FILTER (WHERE jsonb_array_length(questions) > 0),
               COUNT(*) FILTER (WHERE last_active >= NOW() - INTERVAL '7 days'),
               COUNT(*) FILTER (WHERE last_active >= NOW() - INTERVAL '1 day'),
               COUNT(*) FILTER (WHERE is_admin),
               COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '7 days')
        FROM users`

	var stats UserStats
	if err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.WithTattooDate,
		&stats.WithQuestions,
		&stats.ActiveWeek,
		&stats.ActiveToday,
		&stats.Admins,
		&stats.NewThisWeek,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *userRepository) RegistrationsByDay(ctx context.Context, days int) ([]DayCount, error) {
	if days <= 0 {
		days = 7
	}
	const query = `
        SELECT date_trunc('day', created_at) AS day, COUNT(*)
        FROM users
        WHERE created_at >= NOW() - ($1 * INTERVAL '1 day')
        GROUP BY day ORDER BY day`

	rows, err := r.pool.Query(ctx, query, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		result = append(result, dc)
	}
	return result, rows.Err()
}

func (r *userRepository) TouchLastActive(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_active=NOW() WHERE id=$1`, id)
	return err
}

func audienceClause(audience domain.Audience) string {
	switch audience {
	case domain.AudienceWithDate:
		return "tattoo_date IS NOT NULL"
	case domain.AudienceWithQuestions:
		return "jsonb_array_length(questions) > 0"
	case domain.AudienceActiveWeek:
		return "last_active >= NOW() - INTERVAL '7 days'"
	}
	return "TRUE"
}

func marshalUserDocs(user *domain.User) (questions, perms, draft []byte, err error) {
	if user.Questions == nil {
		user.Questions = []domain.Question{}
	}
	questions, err = json.Marshal(user.Questions)
	if err != nil {
		return nil, nil, nil, err
	}
	perms, err = json.Marshal(user.Permissions)
	if err != nil {
		return nil, nil, nil, err
	}
	if user.AppointmentDraft != nil {
		draft, err = json.Marshal(user.AppointmentDraft)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return questions, perms, draft, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user      domain.User
		questions []byte
		perms     []byte
		draft     []byte
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.TattooDate,
		&user.Stage,
		&questions,
		&user.IsAdmin,
		&perms,
		&draft,
		&user.LastActive,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalUserDocs(&user, questions, perms, draft); err != nil {
		return nil, err
	}
	return &user, nil
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func unmarshalUserDocs(user *domain.User, questions, perms, draft []byte) error {
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &user.Questions); err != nil {
			return err
		}
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &user.Permissions); err != nil {
			return err
		}
	}
	if len(draft) > 0 {
		user.AppointmentDraft = &domain.AppointmentDraft{}
		if err := json.Unmarshal(draft, user.AppointmentDraft); err != nil {
			return err
		}
	}
	return nil
}
