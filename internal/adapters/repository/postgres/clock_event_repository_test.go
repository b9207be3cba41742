package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"

	"github.com/nanasync/nanasync-api/internal/core/timeclock"
)

var clockEventRowColumns = []string{"id", "employee_id", "company_id", "event_type", "assigned_state", "occurred_at"}

func TestClockEventRepository_Append(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewClockEventRepository(mock)
	at := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO clock_events`)).
		WithArgs(testEmployeeID, testCompanyID, "clock-in", "working", at).
		WillReturnRows(pgxmock.NewRows(clockEventRowColumns).
			AddRow("evt-1", testEmployeeID, testCompanyID, "clock-in", "working", at))

	got, err := repo.Append(context.Background(), &timeclock.Event{
		EmployeeID: testEmployeeID, CompanyID: testCompanyID, Type: timeclock.TypeClockIn, AssignedState: "working", Timestamp: at,
	})
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if got.ID != "evt-1" || got.Type != timeclock.TypeClockIn || !got.Timestamp.Equal(at) {
		t.Fatalf("unexpected event %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClockEventRepository_ListByEmployee(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewClockEventRepository(mock)
	at := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY occurred_at DESC, id DESC`)).
		WithArgs(testEmployeeID, 50).
		WillReturnRows(pgxmock.NewRows(clockEventRowColumns).
			AddRow("evt-2", testEmployeeID, testCompanyID, "clock-out", "off", at.Add(time.Hour)).
			AddRow("evt-1", testEmployeeID, testCompanyID, "clock-in", "working", at))

	events, err := repo.ListByEmployee(context.Background(), timeclock.HistoryFilter{EmployeeID: testEmployeeID, Limit: 50})
	if err != nil {
		t.Fatalf("ListByEmployee returned error: %v", err)
	}
	if len(events) != 2 || events[0].ID != "evt-2" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestClockEventRepository_ListByEmployee_ScopedToCompany(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewClockEventRepository(mock)
	at := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`AND company_id = $2`)).
		WithArgs(testEmployeeID, testCompanyID, 10).
		WillReturnRows(pgxmock.NewRows(clockEventRowColumns).
			AddRow("evt-1", testEmployeeID, testCompanyID, "clock-in", "working", at))

	events, err := repo.ListByEmployee(context.Background(), timeclock.HistoryFilter{
		EmployeeID: testEmployeeID, CompanyID: testCompanyID, Limit: 10,
	})
	if err != nil {
		t.Fatalf("ListByEmployee returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("unexpected events %+v", events)
	}

	events, err = repo.ListByEmployee(context.Background(), timeclock.HistoryFilter{
		EmployeeID: testEmployeeID, CompanyID: "not-a-uuid", Limit: 10,
	})
	if err != nil {
		t.Fatalf("ListByEmployee returned error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events for malformed company id, got %+v", events)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
