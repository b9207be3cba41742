// Package domainevent はアカウントや打刻に関するドメインイベントの発行を抽象化します。
package domainevent

import (
	"context"
	"time"
)

// Type はイベント種別です。
type Type string

const (
	TypeCompanyRegistered   Type = "company.registered"
	TypeEmployeeProvisioned Type = "employee.provisioned"
	TypeEmployeeLoggedIn    Type = "employee.logged_in"
	TypeEmployeeLoggedOut   Type = "employee.logged_out"
	TypeClockRecorded       Type = "clock.recorded"
)

// Event は発行されるドメインイベントです。Payload に秘密情報を含めてはいけません。
type Event struct {
	ID         string
	Type       Type
	Key        string
	OccurredAt time.Time
	Payload    map[string]any
}

// Publisher はイベントを非同期に発行します。発行の失敗はユースケースを失敗させません。
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Nop は何も発行しない Publisher です。
type Nop struct{}

// Publish は何もしません。
func (Nop) Publish(context.Context, Event) {}
