package timeclock

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

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
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Recorder は打刻の記録と参照を行います。
type Recorder struct {
	events    Repository
	employees EmployeeStatusUpdater
	clock     Clock
	tx        TransactionManager
	publisher domainevent.Publisher
	logger    *zap.Logger
}

// UseCase は打刻ユースケースの公開インターフェースです。
type UseCase interface {
	Clock(ctx context.Context, in ClockInput) (*Event, error)
	History(ctx context.Context, in HistoryInput) ([]*Event, error)
}

// NewRecorder は Recorder を生成します。
func NewRecorder(
	events Repository,
	employees EmployeeStatusUpdater,
	clock Clock,
	tx TransactionManager,
	publisher domainevent.Publisher,
	logger *zap.Logger,
) *Recorder {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if publisher == nil {
		publisher = domainevent.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		events:    events,
		employees: employees,
		clock:     clock,
		tx:        tx,
		publisher: publisher,
		logger:    logger.Named("timeclock"),
	}
}

// ClockInput は打刻時の入力です。
type ClockInput struct {
	EmployeeID    string
	CompanyID     string
	Type          Type
	AssignedState string
}

// HistoryInput は打刻履歴取得時の入力です。
type HistoryInput struct {
	EmployeeID string
	// CompanyID を指定すると他社の記録は返りません。
	CompanyID string
	Limit     int
}

// Clock は打刻を追記し、社員の clockedIn と lastClockEvent を更新します。
// 更新対象は CompanyID に所属する社員に限られます。
// 社員が存在しない場合や他社の社員の場合でも打刻記録は保持されます。
func (r *Recorder) Clock(ctx context.Context, in ClockInput) (*Event, error) {
	draft, err := validateClockInput(in)
	if err != nil {
		return nil, err
	}
	draft.Timestamp = r.clock.Now()

	var recorded *Event
	if err := r.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := r.events.Append(txCtx, draft)
		if err != nil {
			return err
		}
		recorded = result

		err = r.employees.SetClockStatus(txCtx, result.EmployeeID, result.CompanyID, result.Type == TypeClockIn, result.Timestamp)
		switch {
		case err == nil:
		case errors.Is(err, employee.ErrEmployeeNotFound), errors.Is(err, employee.ErrInvalidID):
			r.logger.Warn("clock event recorded for unknown employee",
				zap.String("employee_id", result.EmployeeID),
				zap.String("event_id", result.ID),
			)
		default:
			return err
		}
		return nil
	}); err != nil {
		return nil, err
	}

	r.publisher.Publish(ctx, domainevent.Event{
		Type:       domainevent.TypeClockRecorded,
		Key:        recorded.EmployeeID,
		OccurredAt: recorded.Timestamp,
		Payload: map[string]any{
			"eventId":       recorded.ID,
			"employeeId":    recorded.EmployeeID,
			"companyId":     recorded.CompanyID,
			"type":          string(recorded.Type),
			"assignedState": recorded.AssignedState,
		},
	})

	return recorded, nil
}

// History は社員の打刻履歴を新しい順に返します。
func (r *Recorder) History(ctx context.Context, in HistoryInput) ([]*Event, error) {
	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return nil, ErrMissingEmployeeID
	}

	var events []*Event
	if err := r.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := r.events.ListByEmployee(txCtx, HistoryFilter{
			EmployeeID: employeeID,
			CompanyID:  strings.TrimSpace(in.CompanyID),
			Limit:      normalizeHistoryLimit(in.Limit),
		})
		if err != nil {
			return err
		}
		events = result
		return nil
	}); err != nil {
		return nil, err
	}

	if events == nil {
		events = []*Event{}
	}
	return events, nil
}

func validateClockInput(in ClockInput) (*Event, error) {
	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return nil, ErrMissingEmployeeID
	}
	companyID := strings.TrimSpace(in.CompanyID)
	if companyID == "" {
		return nil, ErrMissingCompanyID
	}
	typ := Type(strings.TrimSpace(string(in.Type)))
	if !typ.IsValid() {
		return nil, ErrInvalidType
	}
	assigned := strings.TrimSpace(in.AssignedState)
	if assigned == "" {
		return nil, ErrMissingAssignedState
	}

	return &Event{
		EmployeeID:    employeeID,
		CompanyID:     companyID,
		Type:          typ,
		AssignedState: assigned,
	}, nil
}

func normalizeHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	default:
		return limit
	}
}
