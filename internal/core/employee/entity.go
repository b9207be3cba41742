package employee

import "time"

// ConnectionState は社員のログイン状態を表します。
type ConnectionState string

const (
	ConnectionActive   ConnectionState = "active"
	ConnectionInactive ConnectionState = "inactive"
)

// Role は社員の権限区分です。
type Role string

const (
	RoleEmployee Role = "employee"
)

// Schedule は勤務時間帯 (HH:MM) を表します。
type Schedule struct {
	Start string
	End   string
}

// Employee は会社に所属する社員アカウントです。
type Employee struct {
	ID              string
	CompanyID       string
	Name            string
	Age             int
	Position        string
	Rank            string
	Schedule        Schedule
	Role            Role
	ConnectionState ConnectionState
	ClockedIn       bool
	LastClockEvent  *time.Time
	Username        string
	PasswordHash    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsValid は接続状態が既知の値か判定します。
func (s ConnectionState) IsValid() bool {
	switch s {
	case ConnectionActive, ConnectionInactive:
		return true
	default:
		return false
	}
}
