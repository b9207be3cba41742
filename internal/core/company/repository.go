package company

import (
	"context"
	"time"
)

// Repository は会社エンティティの永続化を行うインターフェースです。
type Repository interface {
	// Create はメールアドレスが重複する場合 ErrEmailAlreadyExists を返します。
	Create(ctx context.Context, company *Company) (*Company, error)
	FindByID(ctx context.Context, id string) (*Company, error)
	// FindByEmail は該当がない場合 ErrCompanyNotFound を返します。
	FindByEmail(ctx context.Context, email string) (*Company, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*Company, error)
}

// ProfileUpdate はプロフィール更新内容です。nil のフィールドは変更しません。
type ProfileUpdate struct {
	DisplayName *string
	LogoURL     *string
	// LogoURLSet が true で LogoURL が nil の場合はロゴを削除します。
	LogoURLSet bool
	UpdatedAt  time.Time
}
