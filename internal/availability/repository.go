package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines storage access for unavailability windows.
type Repository interface {
	Create(ctx context.Context, u *Unavailability) error
	GetByID(ctx context.Context, id string) (*Unavailability, error)
	List(ctx context.Context, filter Filter) ([]*Unavailability, error)
	ListForStaffDay(ctx context.Context, staffID string, date time.Time) ([]*Unavailability, error)
	Update(ctx context.Context, u *Unavailability) error
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const columns = "id, staff_id, date, start_time, end_time, reason, recurring, created_at"

func (r *pgxRepository) Create(ctx context.Context, u *Unavailability) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.staff_availability").
		Columns("staff_id", "date", "start_time", "end_time", "reason", "recurring").
		Values(u.StaffID, u.Date, u.StartTime, u.EndTime, u.Reason, u.Recurring).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create unavailability query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Unavailability, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(columns).
		From("public.staff_availability").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get unavailability query failed: %w", err)
	}

	var u Unavailability
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(&u.ID, &u.StaffID, &u.Date, &u.StartTime, &u.EndTime, &u.Reason, &u.Recurring, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get unavailability failed: %w", err)
	}
	return &u, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Unavailability, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(columns).
		From("public.staff_availability").
		OrderBy("date ASC", "start_time ASC")

	if filter.StaffID != "" {
		query = query.Where(squirrel.Eq{"staff_id": filter.StaffID})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"date": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.LtOrEq{"date": *filter.To})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list unavailability query failed: %w", err)
	}

	return r.queryMany(ctx, sql, args)
}

func (r *pgxRepository) ListForStaffDay(ctx context.Context, staffID string, date time.Time) ([]*Unavailability, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select(columns).
		From("public.staff_availability").
		Where(squirrel.Eq{"staff_id": staffID}).
		Where(squirrel.Eq{"date": date}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list unavailability for day query failed: %w", err)
	}

	return r.queryMany(ctx, sql, args)
}

func (r *pgxRepository) queryMany(ctx context.Context, sql string, args []any) ([]*Unavailability, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list unavailability failed: %w", err)
	}
	defer rows.Close()

	var records []*Unavailability
	for rows.Next() {
		var u Unavailability
		if err := rows.Scan(&u.ID, &u.StaffID, &u.Date, &u.StartTime, &u.EndTime, &u.Reason, &u.Recurring, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan unavailability failed: %w", err)
		}
		records = append(records, &u)
	}

	return records, nil
}

func (r *pgxRepository) Update(ctx context.Context, u *Unavailability) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.staff_availability").
		Set("start_time", u.StartTime).
		Set("end_time", u.EndTime).
		Set("reason", u.Reason).
		Set("recurring", u.Recurring).
		Where(squirrel.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update unavailability query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update unavailability failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.staff_availability").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete unavailability query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete unavailability failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
