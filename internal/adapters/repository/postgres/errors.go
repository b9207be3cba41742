package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// validUUID は UUID 型カラムへの問い合わせ前に ID を検証します。
// 不正な値をそのまま渡すとトランザクションが中断されるためです。
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
