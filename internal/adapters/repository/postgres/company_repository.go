package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nanasync/nanasync-api/internal/core/company"
	pgdb "github.com/nanasync/nanasync-api/internal/platform/db/postgres"
)

const companyColumns = `id, name, display_name, email, password_hash, logo_url, created_at, updated_at`

// CompanyRepository は PostgreSQL を利用した会社永続化の実装です。
type CompanyRepository struct {
	pool pgdb.Queryer
}

// NewCompanyRepository は CompanyRepository を生成します。
func NewCompanyRepository(pool pgdb.Queryer) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

// Create は会社を新規作成します。
func (r *CompanyRepository) Create(ctx context.Context, c *company.Company) (*company.Company, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO companies (name, display_name, email, password_hash, logo_url, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+companyColumns+`
    `, c.Name, c.DisplayName, c.Email, c.PasswordHash, nullableString(c.LogoURL), c.CreatedAt, c.UpdatedAt)

	created, err := scanCompany(row)
	if err != nil {
		return nil, translateCompanyPgError(err)
	}
	return created, nil
}

// FindByID は ID で会社を取得します。
func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*company.Company, error) {
	if !validUUID(id) {
		return nil, company.ErrInvalidID
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+companyColumns+`
          FROM companies
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanCompany(row)
	if err != nil {
		return nil, translateCompanyPgError(err)
	}
	return found, nil
}

// FindByEmail はメールアドレスで会社を取得します。
func (r *CompanyRepository) FindByEmail(ctx context.Context, email string) (*company.Company, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+companyColumns+`
          FROM companies
         WHERE email = $1
         LIMIT 1
    `, email)

	found, err := scanCompany(row)
	if err != nil {
		return nil, translateCompanyPgError(err)
	}
	return found, nil
}

// UpdateProfile は指定されたフィールドのみを更新します。
func (r *CompanyRepository) UpdateProfile(ctx context.Context, id string, update company.ProfileUpdate) (*company.Company, error) {
	if !validUUID(id) {
		return nil, company.ErrInvalidID
	}

	args := []any{update.UpdatedAt}
	sets := []string{"updated_at = $1"}

	if update.DisplayName != nil {
		args = append(args, *update.DisplayName)
		sets = append(sets, "display_name = $"+strconv.Itoa(len(args)))
	}
	if update.LogoURLSet {
		args = append(args, nullableString(update.LogoURL))
		sets = append(sets, "logo_url = $"+strconv.Itoa(len(args)))
	}

	args = append(args, id)
	query := `
        UPDATE companies
           SET ` + strings.Join(sets, ", ") + `
         WHERE id = $` + strconv.Itoa(len(args)) + `
        RETURNING ` + companyColumns + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	updated, err := scanCompany(exec.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translateCompanyPgError(err)
	}
	return updated, nil
}

func scanCompany(row pgx.Row) (*company.Company, error) {
	var (
		c       company.Company
		logoURL sql.NullString
		created time.Time
		updated time.Time
	)

	if err := row.Scan(&c.ID, &c.Name, &c.DisplayName, &c.Email, &c.PasswordHash, &logoURL, &created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, company.ErrCompanyNotFound
		}
		return nil, err
	}

	if logoURL.Valid {
		logo := logoURL.String
		c.LogoURL = &logo
	}
	c.CreatedAt = created.UTC()
	c.UpdatedAt = updated.UTC()

	return &c, nil
}

func translateCompanyPgError(err error) error {
	if pgErrorCode(err) == uniqueViolationCode {
		return company.ErrEmailAlreadyExists
	}
	return err
}
