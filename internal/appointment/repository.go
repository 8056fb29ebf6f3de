package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itsc-helpdesk/helpdesk-backend/internal/availability"
)

// Repository defines storage access for appointments. It also implements
// availability.AppointmentSource so the checker can scan booked slots.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, filter Filter) ([]*Appointment, int, error)
	UpdateStaff(ctx context.Context, a *Appointment) error
	UpdateStatus(ctx context.Context, a *Appointment) error

	// ListBookedSlots returns the non-cancelled appointments assigned to a
	// staff member on a calendar day, optionally excluding one appointment.
	ListBookedSlots(ctx context.Context, staffID string, date time.Time, excludeID string) ([]availability.BookedSlot, error)

	// ListStartTimesForDay returns the start times of every non-cancelled
	// appointment on a calendar day, regardless of staff.
	ListStartTimesForDay(ctx context.Context, date time.Time) ([]string, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, a *Appointment) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.appointments").
		Columns("date", "start_time", "end_time", "customer_name", "customer_phone",
			"customer_email", "description", "status", "service_id", "staff_id").
		Values(a.Date, a.StartTime, a.EndTime, a.CustomerName, a.CustomerPhone,
			nullable(a.CustomerEmail), a.Description, a.Status, a.ServiceID, nullable(a.StaffID)).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create appointment query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			// The staff/time exclusion constraint caught a double-booking
			// that slipped past the in-process check.
			return ErrNotAvailable
		}
		return fmt.Errorf("create appointment failed: %w", err)
	}
	return nil
}

const selectColumns = `a.id, a.date, a.start_time, a.end_time, a.customer_name, a.customer_phone,
	COALESCE(a.customer_email, ''), a.description, a.status,
	a.service_id, s.name_th,
	COALESCE(a.staff_id::text, ''), COALESCE(u.name, ''),
	a.created_at, a.updated_at`

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(selectColumns).
		From("public.appointments a").
		Join("public.services s ON a.service_id = s.id").
		LeftJoin("public.users u ON a.staff_id = u.id").
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get appointment query failed: %w", err)
	}

	row := r.pool.QueryRow(ctx, query, args...)

	var a Appointment
	if err := scanAppointment(row, &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment failed: %w", err)
	}
	return &a, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Appointment, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(selectColumns + ", count(*) OVER() AS total_count").
		From("public.appointments a").
		Join("public.services s ON a.service_id = s.id").
		LeftJoin("public.users u ON a.staff_id = u.id")

	if filter.StaffID != "" {
		query = query.Where(squirrel.Eq{"a.staff_id": filter.StaffID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"a.status": filter.Status})
	}
	if filter.DateFrom != nil {
		query = query.Where(squirrel.GtOrEq{"a.date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		query = query.Where(squirrel.LtOrEq{"a.date": *filter.DateTo})
	}

	query = query.OrderBy("a.date DESC", "a.start_time DESC")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list appointments query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments failed: %w", err)
	}
	defer rows.Close()

	var appointments []*Appointment
	var total int

	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID, &a.Date, &a.StartTime, &a.EndTime, &a.CustomerName, &a.CustomerPhone,
			&a.CustomerEmail, &a.Description, &a.Status,
			&a.ServiceID, &a.ServiceName,
			&a.StaffID, &a.StaffName,
			&a.CreatedAt, &a.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan appointment failed: %w", err)
		}
		appointments = append(appointments, &a)
	}

	return appointments, total, nil
}

func (r *pgxRepository) UpdateStaff(ctx context.Context, a *Appointment) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.appointments").
		Set("staff_id", nullable(a.StaffID)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": a.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update appointment staff query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			return ErrNotAvailable
		}
		return fmt.Errorf("update appointment staff failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, a *Appointment) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.appointments").
		Set("status", a.Status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": a.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update appointment status query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update appointment status failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) ListBookedSlots(ctx context.Context, staffID string, date time.Time, excludeID string) ([]availability.BookedSlot, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select("a.id", "a.start_time", "a.end_time", "a.customer_name", "s.name_th").
		From("public.appointments a").
		Join("public.services s ON a.service_id = s.id").
		Where(squirrel.Eq{"a.staff_id": staffID}).
		Where(squirrel.Eq{"a.date": date}).
		Where(squirrel.NotEq{"a.status": StatusCancelled}).
		OrderBy("a.start_time ASC")

	if excludeID != "" {
		query = query.Where(squirrel.NotEq{"a.id": excludeID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build booked slots query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list booked slots failed: %w", err)
	}
	defer rows.Close()

	var slots []availability.BookedSlot
	for rows.Next() {
		var b availability.BookedSlot
		if err := rows.Scan(&b.AppointmentID, &b.StartTime, &b.EndTime, &b.CustomerName, &b.ServiceName); err != nil {
			return nil, fmt.Errorf("scan booked slot failed: %w", err)
		}
		slots = append(slots, b)
	}

	return slots, nil
}

func (r *pgxRepository) ListStartTimesForDay(ctx context.Context, date time.Time) ([]string, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select("start_time").
		From("public.appointments").
		Where(squirrel.Eq{"date": date}).
		Where(squirrel.NotEq{"status": StatusCancelled}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build start times query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list start times failed: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan start time failed: %w", err)
		}
		times = append(times, t)
	}

	return times, nil
}

func scanAppointment(row pgx.Row, a *Appointment) error {
	return row.Scan(
		&a.ID, &a.Date, &a.StartTime, &a.EndTime, &a.CustomerName, &a.CustomerPhone,
		&a.CustomerEmail, &a.Description, &a.Status,
		&a.ServiceID, &a.ServiceName,
		&a.StaffID, &a.StaffName,
		&a.CreatedAt, &a.UpdatedAt,
	)
}

// nullable maps an empty string to SQL NULL for optional uuid/text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
