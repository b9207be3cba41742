package employee

import (
	"context"
	"time"
)

// Repository は社員永続化の抽象です。
type Repository interface {
	// Create はユーザー名がユニーク制約に違反した場合 ErrUsernameAlreadyExists を返します。
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByUsername(ctx context.Context, username string) (*Employee, error)
	SetConnectionState(ctx context.Context, id string, state ConnectionState) (*Employee, error)
	// SetClockStatus は companyID に所属する社員のみ更新し、該当がなければ ErrEmployeeNotFound を返します。
	SetClockStatus(ctx context.Context, id, companyID string, clockedIn bool, at time.Time) error
	// List はフィルタに一致する社員と総件数を返します。
	// 並び順は接続中の社員が先、次にユーザー名の昇順です。
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, int64, error)
}

// ListEmployeesFilter は一覧取得用フィルタです。
type ListEmployeesFilter struct {
	CompanyID string
	// Search は名前・ユーザー名・役職・ランクに対する大文字小文字を区別しない部分一致です。
	Search string
	Limit  int
	Offset int
}
