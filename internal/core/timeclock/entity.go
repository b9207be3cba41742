package timeclock

import "time"

// Type は打刻種別です。
type Type string

const (
	TypeClockIn  Type = "clock-in"
	TypeClockOut Type = "clock-out"
)

// IsValid は打刻種別が既知の値か判定します。
func (t Type) IsValid() bool {
	return t == TypeClockIn || t == TypeClockOut
}

// Event は追記のみの打刻記録 (fichaje) です。作成後に変更されません。
type Event struct {
	ID            string
	EmployeeID    string
	CompanyID     string
	Type          Type
	AssignedState string
	Timestamp     time.Time
}
