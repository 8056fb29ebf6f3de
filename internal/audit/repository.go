package audit

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines storage access for audit logs and appointment history.
// Both tables are append-only.
type Repository interface {
	InsertLog(ctx context.Context, entry *Log) error
	InsertHistory(ctx context.Context, entry *HistoryEntry) error
	ListHistory(ctx context.Context, appointmentID string) ([]*HistoryEntry, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) InsertLog(ctx context.Context, entry *Log) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.audit_logs").
		Columns("entity_type", "entity_id", "action", "actor_id", "actor_name",
			"field_changed", "old_value", "new_value").
		Values(entry.EntityType, entry.EntityID, entry.Action, entry.ActorID, entry.ActorName,
			entry.FieldChanged, entry.OldValue, entry.NewValue).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit log query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *pgxRepository) InsertHistory(ctx context.Context, entry *HistoryEntry) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.appointment_history").
		Columns("appointment_id", "action", "actor_id", "actor_name",
			"old_staff_id", "old_staff_name", "new_staff_id", "new_staff_name",
			"old_status", "new_status", "notes").
		Values(entry.AppointmentID, entry.Action, entry.ActorID, entry.ActorName,
			nullable(entry.OldStaffID), nullable(entry.OldStaffName),
			nullable(entry.NewStaffID), nullable(entry.NewStaffName),
			nullable(entry.OldStatus), nullable(entry.NewStatus), entry.Notes).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert history query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *pgxRepository) ListHistory(ctx context.Context, appointmentID string) ([]*HistoryEntry, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "appointment_id", "action", "actor_id", "actor_name",
		"COALESCE(old_staff_id::text, '')", "COALESCE(old_staff_name, '')",
		"COALESCE(new_staff_id::text, '')", "COALESCE(new_staff_name, '')",
		"COALESCE(old_status, '')", "COALESCE(new_status, '')", "notes", "created_at").
		From("public.appointment_history").
		Where(squirrel.Eq{"appointment_id": appointmentID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list history query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history failed: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.AppointmentID, &e.Action, &e.ActorID, &e.ActorName,
			&e.OldStaffID, &e.OldStaffName, &e.NewStaffID, &e.NewStaffName,
			&e.OldStatus, &e.NewStatus, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history failed: %w", err)
		}
		entries = append(entries, &e)
	}

	return entries, nil
}

// nullable maps an empty string to SQL NULL so optional columns stay NULL
// instead of storing empty strings.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
