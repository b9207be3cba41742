package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nanasync/nanasync-api/internal/core/company"
	"github.com/nanasync/nanasync-api/internal/core/credential"
	"github.com/nanasync/nanasync-api/internal/core/domainevent"
	"github.com/nanasync/nanasync-api/internal/core/employee"
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

const (
	maxUsernameAttempts = 3
	dummyPassword       = "nanasync-timing-dummy"
)

// Service は会社・社員の登録と認証をまとめます。
type Service struct {
	companies company.Repository
	employees employee.Repository
	hasher    credential.Hasher
	ids       credential.IdentifierGenerator
	clock     Clock
	tx        TransactionManager
	events    domainevent.Publisher

	dummyOnce sync.Once
	dummyHash string
}

// UseCase は認証ユースケースの公開インターフェースです。
type UseCase interface {
	RegisterCompany(ctx context.Context, in RegisterCompanyInput) (*company.Company, error)
	LoginCompany(ctx context.Context, in LoginCompanyInput) (*company.Company, error)
	ProvisionEmployee(ctx context.Context, in ProvisionEmployeeInput) (*ProvisionEmployeeResult, error)
	LoginEmployee(ctx context.Context, in LoginEmployeeInput) (*employee.Employee, error)
	LogoutEmployee(ctx context.Context, in LogoutEmployeeInput) error
}

// NewService は Service を生成します。ids, clock, tx, events が nil の場合は既定実装を使用します。
func NewService(
	companies company.Repository,
	employees employee.Repository,
	hasher credential.Hasher,
	ids credential.IdentifierGenerator,
	clock Clock,
	tx TransactionManager,
	events domainevent.Publisher,
) *Service {
	if ids == nil {
		ids = credential.NewGenerator(nil)
	}
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if events == nil {
		events = domainevent.Nop{}
	}
	return &Service{
		companies: companies,
		employees: employees,
		hasher:    hasher,
		ids:       ids,
		clock:     clock,
		tx:        tx,
		events:    events,
	}
}

// RegisterCompanyInput は会社登録時の入力です。
type RegisterCompanyInput struct {
	Name     string
	Email    string
	Password string
}

// LoginCompanyInput は会社ログイン時の入力です。
type LoginCompanyInput struct {
	Email    string
	Password string
}

// ProvisionEmployeeInput は社員発行時の入力です。
// Username と Password は任意で、未指定の場合は自動生成されます。
type ProvisionEmployeeInput struct {
	CompanyID string
	Name      string
	Age       *int
	Position  string
	Rank      string
	Schedule  employee.Schedule
	Username  string
	Password  string
}

// ProvisionEmployeeResult は社員発行結果です。
// TemporaryPassword はパスワードを自動生成した場合のみ設定されます。
type ProvisionEmployeeResult struct {
	Employee          *employee.Employee
	Username          string
	TemporaryPassword string
}

// LoginEmployeeInput は社員ログイン時の入力です。
type LoginEmployeeInput struct {
	Username string
	Password string
}

// LogoutEmployeeInput は社員ログアウト時の入力です。
type LogoutEmployeeInput struct {
	EmployeeID string
}

// RegisterCompany は新しい会社アカウントを登録します。
func (s *Service) RegisterCompany(ctx context.Context, in RegisterCompanyInput) (*company.Company, error) {
	name, err := company.NormalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	email, err := company.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, ErrMissingPassword
	}

	var created *company.Company
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.companies.FindByEmail(txCtx, email)
		if err != nil && !errors.Is(err, company.ErrCompanyNotFound) {
			return err
		}
		if existing != nil {
			return company.ErrEmailAlreadyExists
		}

		digest, err := s.hasher.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("hash company password: %w", err)
		}

		now := s.clock.Now()
		result, err := s.companies.Create(txCtx, &company.Company{
			Name:         name,
			DisplayName:  name,
			Email:        email,
			PasswordHash: digest,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, domainevent.TypeCompanyRegistered, created.ID, map[string]any{
		"companyId": created.ID,
		"email":     created.Email,
		"name":      created.Name,
	})

	return created, nil
}

// LoginCompany はメールアドレスとパスワードで会社を認証します。
func (s *Service) LoginCompany(ctx context.Context, in LoginCompanyInput) (*company.Company, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, ErrMissingEmail
	}
	if in.Password == "" {
		return nil, ErrMissingPassword
	}

	found, err := s.companies.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, company.ErrCompanyNotFound) {
			s.verifyDummy(in.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.verify(in.Password, found.PasswordHash); err != nil {
		return nil, err
	}

	return found, nil
}

// ProvisionEmployee は会社に社員アカウントを発行します。
func (s *Service) ProvisionEmployee(ctx context.Context, in ProvisionEmployeeInput) (*ProvisionEmployeeResult, error) {
	draft, err := s.buildEmployee(in)
	if err != nil {
		return nil, err
	}

	explicitUsername := strings.TrimSpace(in.Username) != ""
	if explicitUsername {
		username, err := employee.NormalizeUsername(in.Username)
		if err != nil {
			return nil, err
		}
		draft.Username = username
	}

	password := in.Password
	var temporary string
	if password == "" {
		temporary, err = s.ids.GenerateTemporaryPassword()
		if err != nil {
			return nil, err
		}
		password = temporary
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash employee password: %w", err)
	}
	draft.PasswordHash = digest

	var created *employee.Employee
	for attempt := 1; ; attempt++ {
		if !explicitUsername {
			username, err := s.ids.GenerateUsername(draft.Name)
			if err != nil {
				return nil, err
			}
			draft.Username = username
		}

		created, err = s.insertEmployee(ctx, draft)
		if err == nil {
			break
		}
		if explicitUsername || !errors.Is(err, employee.ErrUsernameAlreadyExists) {
			return nil, err
		}
		if attempt == maxUsernameAttempts {
			return nil, fmt.Errorf("generate unique username after %d attempts: %w", attempt, err)
		}
	}

	s.publish(ctx, domainevent.TypeEmployeeProvisioned, created.ID, map[string]any{
		"employeeId": created.ID,
		"companyId":  created.CompanyID,
		"username":   created.Username,
	})

	return &ProvisionEmployeeResult{
		Employee:          created,
		Username:          created.Username,
		TemporaryPassword: temporary,
	}, nil
}

// LoginEmployee はユーザー名とパスワードで社員を認証し、接続状態を active にします。
func (s *Service) LoginEmployee(ctx context.Context, in LoginEmployeeInput) (*employee.Employee, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" {
		return nil, ErrMissingUsername
	}
	if in.Password == "" {
		return nil, ErrMissingPassword
	}

	found, err := s.employees.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			s.verifyDummy(in.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.verify(in.Password, found.PasswordHash); err != nil {
		return nil, err
	}

	var updated *employee.Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.employees.SetConnectionState(txCtx, found.ID, employee.ConnectionActive)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, domainevent.TypeEmployeeLoggedIn, updated.ID, map[string]any{
		"employeeId": updated.ID,
		"companyId":  updated.CompanyID,
	})

	return updated, nil
}

// LogoutEmployee は社員の接続状態を inactive にします。
// 存在しない ID や不正な ID も成功として扱います。
func (s *Service) LogoutEmployee(ctx context.Context, in LogoutEmployeeInput) error {
	id := strings.TrimSpace(in.EmployeeID)
	if id == "" {
		return ErrMissingEmployeeID
	}

	var updated *employee.Employee
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.employees.SetConnectionState(txCtx, id, employee.ConnectionInactive)
		if err != nil {
			return err
		}
		updated = result
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, employee.ErrEmployeeNotFound), errors.Is(err, employee.ErrInvalidID):
		return nil
	default:
		return err
	}

	s.publish(ctx, domainevent.TypeEmployeeLoggedOut, updated.ID, map[string]any{
		"employeeId": updated.ID,
		"companyId":  updated.CompanyID,
	})
	return nil
}

func (s *Service) buildEmployee(in ProvisionEmployeeInput) (*employee.Employee, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, employee.ErrInvalidName
	}
	age, err := employee.ValidateAge(in.Age)
	if err != nil {
		return nil, err
	}
	position := strings.TrimSpace(in.Position)
	if position == "" {
		return nil, employee.ErrInvalidPosition
	}
	rank := strings.TrimSpace(in.Rank)
	if rank == "" {
		return nil, employee.ErrInvalidRank
	}
	schedule, err := employee.ParseSchedule(in.Schedule.Start, in.Schedule.End)
	if err != nil {
		return nil, err
	}
	companyID, err := employee.NormalizeCompanyID(in.CompanyID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	return &employee.Employee{
		CompanyID:       companyID,
		Name:            name,
		Age:             age,
		Position:        position,
		Rank:            rank,
		Schedule:        schedule,
		Role:            employee.RoleEmployee,
		ConnectionState: employee.ConnectionInactive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (s *Service) insertEmployee(ctx context.Context, draft *employee.Employee) (*employee.Employee, error) {
	var created *employee.Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.companies.FindByID(txCtx, draft.CompanyID); err != nil {
			return err
		}
		candidate := *draft
		result, err := s.employees.Create(txCtx, &candidate)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) verify(password, digest string) error {
	ok, err := s.hasher.Verify(password, digest)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

// verifyDummy は利用者が存在しない場合にも同等の計算量を消費します。
func (s *Service) verifyDummy(password string) {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(dummyPassword)
		if err == nil {
			s.dummyHash = digest
		}
	})
	if s.dummyHash == "" {
		return
	}
	_, _ = s.hasher.Verify(password, s.dummyHash)
}

func (s *Service) publish(ctx context.Context, typ domainevent.Type, key string, payload map[string]any) {
	s.events.Publish(ctx, domainevent.Event{
		Type:       typ,
		Key:        key,
		OccurredAt: s.clock.Now(),
		Payload:    payload,
	})
}
