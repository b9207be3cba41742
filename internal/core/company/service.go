package company

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Service は会社に関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase は会社ユースケースの公開インターフェースです。
type UseCase interface {
	GetCompany(ctx context.Context, in GetCompanyInput) (*Company, error)
	UpdateCompanyProfile(ctx context.Context, in UpdateProfileInput) (*Company, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// GetCompanyInput は会社取得時の入力です。
type GetCompanyInput struct {
	ID string
}

// UpdateProfileInput はプロフィール更新時の入力です。
// LogoURL に空文字を指定するとロゴを削除します。
type UpdateProfileInput struct {
	ID          string
	DisplayName *string
	LogoURL     *string
}

// GetCompany は ID で会社を取得します。
func (s *Service) GetCompany(ctx context.Context, in GetCompanyInput) (*Company, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var company *Company
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		company = result
		return nil
	}); err != nil {
		return nil, err
	}

	return company, nil
}

// UpdateCompanyProfile は表示名とロゴを更新します。
func (s *Service) UpdateCompanyProfile(ctx context.Context, in UpdateProfileInput) (*Company, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	if in.DisplayName == nil && in.LogoURL == nil {
		return nil, ErrEmptyUpdate
	}

	update := ProfileUpdate{UpdatedAt: s.clock.Now()}

	if in.DisplayName != nil {
		displayName := strings.TrimSpace(*in.DisplayName)
		if displayName == "" {
			return nil, ErrInvalidDisplayName
		}
		update.DisplayName = &displayName
	}

	if in.LogoURL != nil {
		update.LogoURLSet = true
		if logo := strings.TrimSpace(*in.LogoURL); logo != "" {
			update.LogoURL = &logo
		}
	}

	var updated *Company
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.repo.UpdateProfile(txCtx, id, update)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// NormalizeName は会社名の前後の空白を除去し、空であれば ErrInvalidName を返します。
func NormalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

// NormalizeEmail はメールアドレスを検証し、小文字化して返します。
func NormalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(addr.Address), nil
}
