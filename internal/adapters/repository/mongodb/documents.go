package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nanasync/nanasync-api/internal/core/company"
	"github.com/nanasync/nanasync-api/internal/core/employee"
	"github.com/nanasync/nanasync-api/internal/core/timeclock"
)

const (
	CompaniesCollection   = "empresas"
	EmployeesCollection   = "empleados"
	ClockEventsCollection = "fichajes"
)

type companyDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	DisplayName  string             `bson:"displayName"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	LogoURL      *string            `bson:"logoUrl"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

type scheduleDocument struct {
	Start string `bson:"start"`
	End   string `bson:"end"`
}

type employeeDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	CompanyID       primitive.ObjectID `bson:"companyId"`
	Name            string             `bson:"name"`
	Age             int                `bson:"age"`
	Position        string             `bson:"position"`
	Rank            string             `bson:"rank"`
	Schedule        scheduleDocument   `bson:"schedule"`
	Role            string             `bson:"role"`
	ConnectionState string             `bson:"connectionState"`
	ClockedIn       bool               `bson:"clockedIn"`
	LastClockEvent  *time.Time         `bson:"lastClockEvent,omitempty"`
	// username は sparse unique index の対象のため、空の場合はフィールド自体を省略します。
	Username     string    `bson:"username,omitempty"`
	PasswordHash string    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

type clockEventDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	EmployeeID    string             `bson:"employeeId"`
	CompanyID     string             `bson:"companyId"`
	Type          string             `bson:"type"`
	AssignedState string             `bson:"assignedState"`
	Timestamp     time.Time          `bson:"timestamp"`
}

func newCompanyDocument(c *company.Company) companyDocument {
	return companyDocument{
		Name:         c.Name,
		DisplayName:  c.DisplayName,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		LogoURL:      c.LogoURL,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (d companyDocument) toEntity() *company.Company {
	return &company.Company{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		DisplayName:  d.DisplayName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		LogoURL:      d.LogoURL,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func newEmployeeDocument(e *employee.Employee, companyID primitive.ObjectID) employeeDocument {
	return employeeDocument{
		CompanyID:       companyID,
		Name:            e.Name,
		Age:             e.Age,
		Position:        e.Position,
		Rank:            e.Rank,
		Schedule:        scheduleDocument{Start: e.Schedule.Start, End: e.Schedule.End},
		Role:            string(e.Role),
		ConnectionState: string(e.ConnectionState),
		ClockedIn:       e.ClockedIn,
		LastClockEvent:  e.LastClockEvent,
		Username:        e.Username,
		PasswordHash:    e.PasswordHash,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func (d employeeDocument) toEntity() *employee.Employee {
	var last *time.Time
	if d.LastClockEvent != nil {
		t := d.LastClockEvent.UTC()
		last = &t
	}
	return &employee.Employee{
		ID:              d.ID.Hex(),
		CompanyID:       d.CompanyID.Hex(),
		Name:            d.Name,
		Age:             d.Age,
		Position:        d.Position,
		Rank:            d.Rank,
		Schedule:        employee.Schedule{Start: d.Schedule.Start, End: d.Schedule.End},
		Role:            employee.Role(d.Role),
		ConnectionState: employee.ConnectionState(d.ConnectionState),
		ClockedIn:       d.ClockedIn,
		LastClockEvent:  last,
		Username:        d.Username,
		PasswordHash:    d.PasswordHash,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

func newClockEventDocument(e *timeclock.Event) clockEventDocument {
	return clockEventDocument{
		EmployeeID:    e.EmployeeID,
		CompanyID:     e.CompanyID,
		Type:          string(e.Type),
		AssignedState: e.AssignedState,
		Timestamp:     e.Timestamp,
	}
}

func (d clockEventDocument) toEntity() *timeclock.Event {
	return &timeclock.Event{
		ID:            d.ID.Hex(),
		EmployeeID:    d.EmployeeID,
		CompanyID:     d.CompanyID,
		Type:          timeclock.Type(d.Type),
		AssignedState: d.AssignedState,
		Timestamp:     d.Timestamp.UTC(),
	}
}
