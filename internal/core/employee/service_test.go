package employee

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"
	"time"
)

type fakeEmployeeRepo struct {
	employees  map[string]*Employee
	seq        int
	lastFilter ListEmployeesFilter
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: make(map[string]*Employee)}
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e *Employee) (*Employee, error) {
	for _, existing := range r.employees {
		if existing.Username == e.Username {
			return nil, ErrUsernameAlreadyExists
		}
	}
	clone := cloneEmployee(e)
	r.seq++
	clone.ID = fmt.Sprintf("emp-%d", r.seq)
	r.employees[clone.ID] = clone
	return cloneEmployee(clone), nil
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id string) (*Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return cloneEmployee(e), nil
}

func (r *fakeEmployeeRepo) FindByUsername(_ context.Context, username string) (*Employee, error) {
	for _, e := range r.employees {
		if e.Username == username {
			return cloneEmployee(e), nil
		}
	}
	return nil, ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) SetConnectionState(_ context.Context, id string, state ConnectionState) (*Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	e.ConnectionState = state
	return cloneEmployee(e), nil
}

func (r *fakeEmployeeRepo) SetClockStatus(_ context.Context, id, companyID string, clockedIn bool, at time.Time) error {
	e, ok := r.employees[id]
	if !ok || e.CompanyID != companyID {
		return ErrEmployeeNotFound
	}
	e.ClockedIn = clockedIn
	e.LastClockEvent = &at
	return nil
}

func (r *fakeEmployeeRepo) List(_ context.Context, filter ListEmployeesFilter) ([]*Employee, int64, error) {
	r.lastFilter = filter
	needle := strings.ToLower(filter.Search)

	var matched []*Employee
	for _, e := range r.employees {
		if e.CompanyID != filter.CompanyID {
			continue
		}
		if needle != "" {
			hay := strings.ToLower(strings.Join([]string{e.Name, e.Username, e.Position, e.Rank}, "\x00"))
			if !strings.Contains(hay, needle) {
				continue
			}
		}
		matched = append(matched, cloneEmployee(e))
	}

	sort.Slice(matched, func(i, j int) bool {
		ai := matched[i].ConnectionState == ConnectionActive
		aj := matched[j].ConnectionState == ConnectionActive
		if ai != aj {
			return ai
		}
		return matched[i].Username < matched[j].Username
	})

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []*Employee{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], total, nil
}

func cloneEmployee(e *Employee) *Employee {
	if e == nil {
		return nil
	}
	copy := *e
	if e.LastClockEvent != nil {
		t := *e.LastClockEvent
		copy.LastClockEvent = &t
	}
	return &copy
}

func seedEmployees(t *testing.T, repo *fakeEmployeeRepo) {
	t.Helper()
	seeds := []*Employee{
		{CompanyID: "c1", Name: "Zoe", Username: "zoe1234", Position: "Cook", Rank: "Senior", ConnectionState: ConnectionActive},
		{CompanyID: "c1", Name: "Ana", Username: "ana5678", Position: "Waiter", Rank: "Junior", ConnectionState: ConnectionInactive},
		{CompanyID: "c1", Name: "Bob", Username: "bob4321", Position: "Cook", Rank: "Junior", ConnectionState: ConnectionActive},
		{CompanyID: "c1", Name: "Carla", Username: "carla1111", Position: "Manager", Rank: "Lead", ConnectionState: ConnectionInactive},
		{CompanyID: "c2", Name: "Other", Username: "other1000", Position: "Cook", Rank: "Senior", ConnectionState: ConnectionActive},
	}
	for _, e := range seeds {
		if _, err := repo.Create(context.Background(), e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func usernames(employees []*Employee) []string {
	out := make([]string, 0, len(employees))
	for _, e := range employees {
		out = append(out, e.Username)
	}
	return out
}

func TestService_ListEmployees_SortAndFilter(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	seedEmployees(t, repo)
	svc := NewService(repo, nil)

	result, err := svc.ListEmployees(context.Background(), ListEmployeesInput{CompanyID: "c1", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if result.Total != 4 {
		t.Fatalf("expected total 4, got %d", result.Total)
	}
	got := strings.Join(usernames(result.Employees), ",")
	if got != "bob4321,zoe1234,ana5678,carla1111" {
		t.Fatalf("unexpected order %s", got)
	}

	result, err = svc.ListEmployees(context.Background(), ListEmployeesInput{CompanyID: "c1", Search: " COOK ", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("expected 2 cooks, got %d", result.Total)
	}
	if repo.lastFilter.Search != "COOK" {
		t.Fatalf("expected trimmed search, got %q", repo.lastFilter.Search)
	}
}

func TestService_ListEmployees_Pagination(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	seedEmployees(t, repo)
	svc := NewService(repo, nil)

	result, err := svc.ListEmployees(context.Background(), ListEmployeesInput{CompanyID: "c1", Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if repo.lastFilter.Offset != 3 || repo.lastFilter.Limit != 3 {
		t.Fatalf("unexpected filter %+v", repo.lastFilter)
	}
	if len(result.Employees) != 1 || result.Employees[0].Username != "carla1111" {
		t.Fatalf("unexpected page %v", usernames(result.Employees))
	}
	if result.Total != 4 || result.Page != 2 || result.PageSize != 3 {
		t.Fatalf("unexpected result meta %+v", result)
	}
}

func TestService_ListEmployees_Clamp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		page         int
		pageSize     int
		wantPage     int
		wantPageSize int
	}{
		{name: "zero page size", page: 1, pageSize: 0, wantPage: 1, wantPageSize: 1},
		{name: "negative page size", page: 1, pageSize: -5, wantPage: 1, wantPageSize: 1},
		{name: "too large page size", page: 1, pageSize: 1000, wantPage: 1, wantPageSize: 200},
		{name: "page below one", page: -3, pageSize: 20, wantPage: 1, wantPageSize: 20},
	}

	for _, tc := range cases {
		repo := newFakeEmployeeRepo()
		svc := NewService(repo, nil)
		result, err := svc.ListEmployees(context.Background(), ListEmployeesInput{CompanyID: "c1", Page: tc.page, PageSize: tc.pageSize})
		if err != nil {
			t.Fatalf("%s: ListEmployees returned error: %v", tc.name, err)
		}
		if result.Page != tc.wantPage || result.PageSize != tc.wantPageSize {
			t.Fatalf("%s: expected page=%d size=%d, got %+v", tc.name, tc.wantPage, tc.wantPageSize, result)
		}
		if repo.lastFilter.Limit != tc.wantPageSize || repo.lastFilter.Offset != 0 {
			t.Fatalf("%s: unexpected filter %+v", tc.name, repo.lastFilter)
		}
		if result.Employees == nil {
			t.Fatalf("%s: expected empty slice, got nil", tc.name)
		}
	}
}

func TestService_ListEmployees_HugePageKeepsOffsetPositive(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	seedEmployees(t, repo)
	svc := NewService(repo, nil)

	result, err := svc.ListEmployees(context.Background(), ListEmployeesInput{CompanyID: "c1", Page: math.MaxInt / 10, PageSize: 200})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if repo.lastFilter.Offset < 0 {
		t.Fatalf("expected non-negative offset, got %d", repo.lastFilter.Offset)
	}
	if result.Page != maxListPage {
		t.Fatalf("expected page clamped to %d, got %d", maxListPage, result.Page)
	}
	if len(result.Employees) != 0 || result.Total != 4 {
		t.Fatalf("expected empty page with total 4, got %d items total %d", len(result.Employees), result.Total)
	}
}

func TestService_ListEmployees_InvalidCompanyID(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeEmployeeRepo(), nil)
	if _, err := svc.ListEmployees(context.Background(), ListEmployeesInput{CompanyID: "  "}); !errors.Is(err, ErrInvalidCompanyID) {
		t.Fatalf("expected ErrInvalidCompanyID, got %v", err)
	}
}

func TestService_GetEmployee(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	seedEmployees(t, repo)
	svc := NewService(repo, nil)

	got, err := svc.GetEmployee(context.Background(), GetEmployeeInput{ID: "emp-1"})
	if err != nil {
		t.Fatalf("GetEmployee returned error: %v", err)
	}
	if got.Username != "zoe1234" {
		t.Fatalf("unexpected employee %+v", got)
	}

	if _, err := svc.GetEmployee(context.Background(), GetEmployeeInput{ID: "emp-99"}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
	if _, err := svc.GetEmployee(context.Background(), GetEmployeeInput{}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestNormalizeUsername(t *testing.T) {
	t.Parallel()

	got, err := NormalizeUsername("  Maria.Lopez_01 ")
	if err != nil {
		t.Fatalf("NormalizeUsername returned error: %v", err)
	}
	if got != "maria.lopez_01" {
		t.Fatalf("expected lowercase username, got %q", got)
	}

	for _, raw := range []string{"", "ab", "with space", "ñandu", strings.Repeat("a", 41)} {
		if _, err := NormalizeUsername(raw); !errors.Is(err, ErrInvalidUsername) {
			t.Fatalf("expected ErrInvalidUsername for %q, got %v", raw, err)
		}
	}
}

func TestValidateAge(t *testing.T) {
	t.Parallel()

	valid := 30
	if age, err := ValidateAge(&valid); err != nil || age != 30 {
		t.Fatalf("expected 30, got %d (%v)", age, err)
	}

	for _, v := range []int{0, -1, 121} {
		v := v
		if _, err := ValidateAge(&v); !errors.Is(err, ErrInvalidAge) {
			t.Fatalf("expected ErrInvalidAge for %d, got %v", v, err)
		}
	}
	if _, err := ValidateAge(nil); !errors.Is(err, ErrInvalidAge) {
		t.Fatalf("expected ErrInvalidAge for nil, got %v", err)
	}
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	schedule, err := ParseSchedule(" 09:00 ", "17:30")
	if err != nil {
		t.Fatalf("ParseSchedule returned error: %v", err)
	}
	if schedule.Start != "09:00" || schedule.End != "17:30" {
		t.Fatalf("unexpected schedule %+v", schedule)
	}

	for _, pair := range [][2]string{{"", "17:00"}, {"09:00", ""}, {"9am", "17:00"}, {"09:00", "25:00"}} {
		if _, err := ParseSchedule(pair[0], pair[1]); !errors.Is(err, ErrInvalidSchedule) {
			t.Fatalf("expected ErrInvalidSchedule for %v, got %v", pair, err)
		}
	}
}
