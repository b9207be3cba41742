package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nanasync/nanasync-api/internal/core/employee"
	pgdb "github.com/nanasync/nanasync-api/internal/platform/db/postgres"
)

const employeeColumns = `id, company_id, name, age, job_position, job_rank, schedule_start, schedule_end,
               role, connection_state, clocked_in, last_clock_event, username, password_hash,
               created_at, updated_at`

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を作成します。ユーザー名の一意性は部分ユニークインデックスで保証されます。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	if !validUUID(e.CompanyID) {
		return nil, employee.ErrInvalidCompanyID
	}

	var username any
	if e.Username != "" {
		username = e.Username
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (
            company_id, name, age, job_position, job_rank, schedule_start, schedule_end,
            role, connection_state, clocked_in, last_clock_event, username, password_hash,
            created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING `+employeeColumns+`
    `,
		e.CompanyID, e.Name, e.Age, e.Position, e.Rank, e.Schedule.Start, e.Schedule.End,
		string(e.Role), string(e.ConnectionState), e.ClockedIn, e.LastClockEvent, username, e.PasswordHash,
		e.CreatedAt, e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	if !validUUID(id) {
		return nil, employee.ErrInvalidID
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByUsername はユーザー名で社員を取得します。
func (r *EmployeeRepository) FindByUsername(ctx context.Context, username string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE username = $1
         LIMIT 1
    `, username)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// SetConnectionState は接続状態を更新します。
func (r *EmployeeRepository) SetConnectionState(ctx context.Context, id string, state employee.ConnectionState) (*employee.Employee, error) {
	if !state.IsValid() {
		return nil, employee.ErrInvalidConnectionState
	}
	if !validUUID(id) {
		return nil, employee.ErrInvalidID
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET connection_state = $1,
               updated_at = now()
         WHERE id = $2
        RETURNING `+employeeColumns+`
    `, string(state), id)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// SetClockStatus は会社に所属する社員の出勤状態と最終打刻時刻を更新します。
func (r *EmployeeRepository) SetClockStatus(ctx context.Context, id, companyID string, clockedIn bool, at time.Time) error {
	if !validUUID(id) {
		return employee.ErrInvalidID
	}
	if !validUUID(companyID) {
		return employee.ErrEmployeeNotFound
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE employees
           SET clocked_in = $1,
               last_clock_event = $2,
               updated_at = $2
         WHERE id = $3
           AND company_id = $4
    `, clockedIn, at, id, companyID)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// List は会社の社員を検索します。接続中の社員が先頭、次にユーザー名の昇順です。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, int64, error) {
	if !validUUID(filter.CompanyID) {
		return nil, 0, employee.ErrInvalidCompanyID
	}

	args := []any{filter.CompanyID}
	conditions := []string{"company_id = $1"}

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		placeholder := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, "(name ILIKE "+placeholder+
			" OR username ILIKE "+placeholder+
			" OR job_position ILIKE "+placeholder+
			" OR job_rank ILIKE "+placeholder+")")
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var total int64
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	query := `
        SELECT ` + employeeColumns + `
          FROM employees` + whereClause + `
         ORDER BY connection_state = 'active' DESC, username ASC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		found, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, translateEmployeePgError(err)
		}
		employees = append(employees, found)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translateEmployeePgError(err)
	}

	return employees, total, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e               employee.Employee
		role, state     string
		lastClockEvent  sql.NullTime
		username        sql.NullString
		created, update time.Time
	)

	if err := row.Scan(
		&e.ID, &e.CompanyID, &e.Name, &e.Age, &e.Position, &e.Rank, &e.Schedule.Start, &e.Schedule.End,
		&role, &state, &e.ClockedIn, &lastClockEvent, &username, &e.PasswordHash,
		&created, &update,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	e.Role = employee.Role(role)
	e.ConnectionState = employee.ConnectionState(state)
	if lastClockEvent.Valid {
		t := lastClockEvent.Time.UTC()
		e.LastClockEvent = &t
	}
	e.Username = username.String
	e.CreatedAt = created.UTC()
	e.UpdatedAt = update.UTC()

	return &e, nil
}

func translateEmployeePgError(err error) error {
	switch pgErrorCode(err) {
	case uniqueViolationCode:
		return employee.ErrUsernameAlreadyExists
	case foreignKeyViolationCode:
		return employee.ErrCompanyNotFound
	default:
		return err
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
