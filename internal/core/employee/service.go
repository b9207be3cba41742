package employee

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

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

const (
	// DefaultListPageSize は pageSize 未指定時の既定値です。
	DefaultListPageSize = 50
	maxListPageSize     = 200
	// maxListPage は Offset 計算が int に収まる上限です。
	maxListPage    = math.MaxInt / maxListPageSize
	maxAge         = 120
	scheduleLayout = "15:04"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]{3,40}$`)

// Service は社員に関する参照ユースケースをまとめます。
type Service struct {
	repo Repository
	tx   TransactionManager
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, tx TransactionManager) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, tx: tx}
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	ID string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	CompanyID string
	Search    string
	Page      int
	PageSize  int
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Total     int64
	Page      int
	PageSize  int
	Employees []*Employee
}

// GetEmployee は ID で社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var employee *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		employee = result
		return nil
	}); err != nil {
		return nil, err
	}

	return employee, nil
}

// ListEmployees は会社に所属する社員を検索し、ページ単位で返します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	companyID, err := NormalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	page := normalizePage(in.Page)
	pageSize := normalizePageSize(in.PageSize)

	var (
		employees []*Employee
		total     int64
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, count, err := s.repo.List(txCtx, ListEmployeesFilter{
			CompanyID: companyID,
			Search:    strings.TrimSpace(in.Search),
			Limit:     pageSize,
			Offset:    (page - 1) * pageSize,
		})
		if err != nil {
			return err
		}
		employees = result
		total = count
		return nil
	}); err != nil {
		return nil, err
	}

	if employees == nil {
		employees = []*Employee{}
	}

	return &ListEmployeesResult{
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		Employees: employees,
	}, nil
}

// NormalizeCompanyID は会社 ID の空白を除去し、空であれば ErrInvalidCompanyID を返します。
func NormalizeCompanyID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidCompanyID
	}
	return trimmed, nil
}

// NormalizeUsername は明示指定されたユーザー名を小文字化して検証します。
func NormalizeUsername(raw string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if !usernamePattern.MatchString(lower) {
		return "", ErrInvalidUsername
	}
	return lower, nil
}

// ValidateAge は年齢が 1〜120 の範囲か検証します。
func ValidateAge(age *int) (int, error) {
	if age == nil || *age <= 0 || *age > maxAge {
		return 0, ErrInvalidAge
	}
	return *age, nil
}

// ParseSchedule は HH:MM 形式の開始・終了時刻を検証します。
func ParseSchedule(start, end string) (Schedule, error) {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" || end == "" {
		return Schedule{}, ErrInvalidSchedule
	}
	if _, err := time.Parse(scheduleLayout, start); err != nil {
		return Schedule{}, ErrInvalidSchedule
	}
	if _, err := time.Parse(scheduleLayout, end); err != nil {
		return Schedule{}, ErrInvalidSchedule
	}
	return Schedule{Start: start, End: end}, nil
}

func normalizePage(page int) int {
	switch {
	case page < 1:
		return 1
	case page > maxListPage:
		return maxListPage
	default:
		return page
	}
}

func normalizePageSize(pageSize int) int {
	switch {
	case pageSize < 1:
		return 1
	case pageSize > maxListPageSize:
		return maxListPageSize
	default:
		return pageSize
	}
}
