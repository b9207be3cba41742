package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nanasync/nanasync-api/internal/core/timeclock"
	pgdb "github.com/nanasync/nanasync-api/internal/platform/db/postgres"
)

const clockEventColumns = `id, employee_id, company_id, event_type, assigned_state, occurred_at`

// ClockEventRepository は clock_events テーブルへの追記を行います。
type ClockEventRepository struct {
	pool pgdb.Queryer
}

// NewClockEventRepository は ClockEventRepository を生成します。
func NewClockEventRepository(pool pgdb.Queryer) *ClockEventRepository {
	return &ClockEventRepository{pool: pool}
}

// Append は打刻記録を追加します。
func (r *ClockEventRepository) Append(ctx context.Context, event *timeclock.Event) (*timeclock.Event, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO clock_events (employee_id, company_id, event_type, assigned_state, occurred_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+clockEventColumns+`
    `, event.EmployeeID, event.CompanyID, string(event.Type), event.AssignedState, event.Timestamp)

	created, err := scanClockEvent(row)
	if err != nil {
		return nil, fmt.Errorf("insert clock event: %w", err)
	}
	return created, nil
}

// ListByEmployee は社員の打刻記録を新しい順に返します。
func (r *ClockEventRepository) ListByEmployee(ctx context.Context, filter timeclock.HistoryFilter) ([]*timeclock.Event, error) {
	query := `
        SELECT ` + clockEventColumns + `
          FROM clock_events
         WHERE employee_id = $1`
	args := []any{filter.EmployeeID}
	if filter.CompanyID != "" {
		if !validUUID(filter.CompanyID) {
			return []*timeclock.Event{}, nil
		}
		args = append(args, filter.CompanyID)
		query += `
           AND company_id = $2`
	}
	args = append(args, filter.Limit)
	query += `
         ORDER BY occurred_at DESC, id DESC
         LIMIT $` + strconv.Itoa(len(args))

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clock events: %w", err)
	}
	defer rows.Close()

	events := make([]*timeclock.Event, 0, filter.Limit)
	for rows.Next() {
		event, err := scanClockEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clock event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clock events: %w", err)
	}
	return events, nil
}

func scanClockEvent(row pgx.Row) (*timeclock.Event, error) {
	var (
		e   timeclock.Event
		typ string
		at  time.Time
	)
	if err := row.Scan(&e.ID, &e.EmployeeID, &e.CompanyID, &typ, &e.AssignedState, &at); err != nil {
		return nil, err
	}
	e.Type = timeclock.Type(typ)
	e.Timestamp = at.UTC()
	return &e, nil
}
