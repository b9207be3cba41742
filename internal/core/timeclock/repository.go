package timeclock

import (
	"context"
	"time"
)

// Repository は打刻記録の永続化を行います。
type Repository interface {
	Append(ctx context.Context, event *Event) (*Event, error)
	// ListByEmployee は新しい順に打刻記録を返します。
	ListByEmployee(ctx context.Context, filter HistoryFilter) ([]*Event, error)
}

// HistoryFilter は打刻履歴の取得条件です。
type HistoryFilter struct {
	EmployeeID string
	// CompanyID が空でなければその会社の記録に限定します。
	CompanyID string
	Limit     int
}

// EmployeeStatusUpdater は社員の出勤状態を更新します。
type EmployeeStatusUpdater interface {
	SetClockStatus(ctx context.Context, id, companyID string, clockedIn bool, at time.Time) error
}
