package waste

import (
	"context"
	"testing"
	"time"

	"github.com/wasteer/wasteer/internal/apperr"
	"github.com/wasteer/wasteer/internal/identity"
)

type fakeStore struct {
	entries   map[int64]*Entry
	nextID    int64
	lastQuery Query
	aggs      []TypeAggregate
	deleted   []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[int64]*Entry{}, nextID: 1}
}

func (f *fakeStore) Create(_ context.Context, e *Entry) (*Entry, error) {
	e.ID = f.nextID
	f.nextID++
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, apperr.NotFound("Waste entry not found")
	}
	return e, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, in UpdateEntryInput) (*Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, apperr.NotFound("Waste entry not found")
	}
	if in.Weight != nil {
		e.Weight = *in.Weight
	}
	if in.WasteType != nil {
		e.WasteType = Type(*in.WasteType)
	}
	return e, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.entries[id]; !ok {
		return apperr.NotFound("Waste entry not found")
	}
	delete(f.entries, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, q Query) ([]*Entry, error) {
	f.lastQuery = q
	return []*Entry{}, nil
}

func (f *fakeStore) AggregateByType(_ context.Context, q Query) ([]TypeAggregate, error) {
	f.lastQuery = q
	return f.aggs, nil
}

type fakeTeams struct {
	existing map[int64]bool
}

func (f *fakeTeams) TeamExists(_ context.Context, id int64) (bool, error) {
	return f.existing[id], nil
}

func ptr[T any](v T) *T { return &v }

func superuser(id int64) *identity.User {
	return &identity.User{ID: id, Username: "root", IsSuperuser: true}
}

func manager(id, teamID int64) *identity.User {
	return &identity.User{
		ID: id, Username: "manager", TeamID: &teamID,
		Permissions: []string{"manage_wasteentry", "view_analytics", "view_wasteentry"},
	}
}

func employee(id, teamID int64) *identity.User {
	return &identity.User{
		ID: id, Username: "employee", TeamID: &teamID,
		Permissions: []string{"add_wasteentry", "view_wasteentry"},
	}
}

func TestCreateEntryValidation(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeTeams{existing: map[int64]bool{1: true}})

	tests := []struct {
		name    string
		caller  *identity.User
		input   CreateEntryInput
		wantMsg string
	}{
		{
			name:    "missing waste type",
			caller:  employee(1, 1),
			input:   CreateEntryInput{Weight: ptr(1.5)},
			wantMsg: "Missing required fields",
		},
		{
			name:    "missing weight",
			caller:  employee(1, 1),
			input:   CreateEntryInput{WasteType: "paper"},
			wantMsg: "Missing required fields",
		},
		{
			name:    "zero weight",
			caller:  employee(1, 1),
			input:   CreateEntryInput{WasteType: "paper", Weight: ptr(0.0)},
			wantMsg: "Missing required fields",
		},
		{
			name:    "invalid waste type",
			caller:  employee(1, 1),
			input:   CreateEntryInput{WasteType: "styrofoam", Weight: ptr(1.5)},
			wantMsg: "Invalid waste type",
		},
		{
			name:    "caller without team",
			caller:  &identity.User{ID: 9, Permissions: []string{"add_wasteentry"}},
			input:   CreateEntryInput{WasteType: "paper", Weight: ptr(1.5)},
			wantMsg: "User must be assigned to a team",
		},
		{
			name:    "superuser without team id",
			caller:  superuser(1),
			input:   CreateEntryInput{WasteType: "paper", Weight: ptr(1.5)},
			wantMsg: "Team id required",
		},
		{
			name:    "superuser with unknown team id",
			caller:  superuser(1),
			input:   CreateEntryInput{WasteType: "paper", Weight: ptr(1.5), TeamID: ptr(int64(42))},
			wantMsg: "Invalid team id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateEntry(context.Background(), tt.caller, tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := apperr.Message(err); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
			if status := apperr.Status(err); status != 400 {
				t.Errorf("status = %d, want 400", status)
			}
		})
	}
}

func TestCreateEntryTeamResolution(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeTeams{existing: map[int64]bool{1: true, 2: true}})

	// Non-superuser is always pinned to their own team.
	e, err := svc.CreateEntry(context.Background(), employee(7, 2),
		CreateEntryInput{WasteType: "plastic", Weight: ptr(1.5)})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if e.TeamID != 2 || e.UserID != 7 {
		t.Errorf("entry team/user = %d/%d, want 2/7", e.TeamID, e.UserID)
	}

	// Superuser-supplied team id wins even when the superuser has a team.
	su := superuser(1)
	su.TeamID = ptr(int64(2))
	e, err = svc.CreateEntry(context.Background(), su,
		CreateEntryInput{WasteType: "glass", Weight: ptr(3.0), TeamID: ptr(int64(1))})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if e.TeamID != 1 {
		t.Errorf("entry team = %d, want 1", e.TeamID)
	}
}

func TestCreateEntryTimestampDefault(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeTeams{})
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	e, err := svc.CreateEntry(context.Background(), employee(1, 1),
		CreateEntryInput{WasteType: "paper", Weight: ptr(1.0)})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if !e.Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", e.Timestamp, fixed)
	}

	override := fixed.AddDate(0, 0, -3)
	e, err = svc.CreateEntry(context.Background(), employee(1, 1),
		CreateEntryInput{WasteType: "paper", Weight: ptr(1.0), Timestamp: &override})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if !e.Timestamp.Equal(override) {
		t.Errorf("timestamp = %v, want %v", e.Timestamp, override)
	}
}

func TestGetEntryVisibility(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeTeams{})
	store.entries[10] = &Entry{ID: 10, UserID: 5, TeamID: 1, WasteType: TypePaper, Weight: 1}
	store.entries[11] = &Entry{ID: 11, UserID: 6, TeamID: 2, WasteType: TypeGlass, Weight: 2}

	// Author sees their own entry.
	if _, err := svc.GetEntry(context.Background(), employee(5, 1), 10); err != nil {
		t.Errorf("author GetEntry: %v", err)
	}

	// A different employee gets 404, not 403.
	_, err := svc.GetEntry(context.Background(), employee(6, 1), 10)
	if err == nil || apperr.Status(err) != 404 {
		t.Errorf("foreign GetEntry: err = %v, want 404", err)
	}

	// Manager sees teammate entries but not other teams.
	if _, err := svc.GetEntry(context.Background(), manager(9, 1), 10); err != nil {
		t.Errorf("manager same-team GetEntry: %v", err)
	}
	_, err = svc.GetEntry(context.Background(), manager(9, 1), 11)
	if err == nil || apperr.Status(err) != 404 {
		t.Errorf("manager cross-team GetEntry: err = %v, want 404", err)
	}

	// Superuser sees everything.
	if _, err := svc.GetEntry(context.Background(), superuser(1), 11); err != nil {
		t.Errorf("superuser GetEntry: %v", err)
	}
}

func TestUpdateEntryPermissions(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeTeams{})
	store.entries[10] = &Entry{ID: 10, UserID: 5, TeamID: 1, WasteType: TypePaper, Weight: 1}

	// Author without edit_wasteentry is refused.
	_, err := svc.UpdateEntry(context.Background(), employee(5, 1), 10,
		UpdateEntryInput{Weight: ptr(2.0)})
	if err == nil || apperr.Status(err) != 403 {
		t.Errorf("author without permission: err = %v, want 403", err)
	}

	// Author holding edit_wasteentry may update.
	author := employee(5, 1)
	author.Permissions = append(author.Permissions, "edit_wasteentry")
	if _, err := svc.UpdateEntry(context.Background(), author, 10,
		UpdateEntryInput{Weight: ptr(2.0)}); err != nil {
		t.Errorf("author with permission: %v", err)
	}

	// Teammate with manage_wasteentry may update.
	if _, err := svc.UpdateEntry(context.Background(), manager(9, 1), 10,
		UpdateEntryInput{Weight: ptr(3.0)}); err != nil {
		t.Errorf("manager update: %v", err)
	}

	// Invalid replacement type is rejected.
	_, err = svc.UpdateEntry(context.Background(), manager(9, 1), 10,
		UpdateEntryInput{WasteType: ptr("sludge")})
	if err == nil || apperr.Message(err) != "Invalid waste type" {
		t.Errorf("invalid type update: err = %v", err)
	}

	// A zero replacement weight is refused like a zero weight at creation.
	_, err = svc.UpdateEntry(context.Background(), manager(9, 1), 10,
		UpdateEntryInput{Weight: ptr(0.0)})
	if err == nil || apperr.Message(err) != "Missing required fields" {
		t.Errorf("zero weight update: err = %v", err)
	}
	if e := store.entries[10]; e.Weight != 3.0 {
		t.Errorf("entry weight = %v, want unchanged 3", e.Weight)
	}
}

func TestDeleteEntryPermissions(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeTeams{})
	store.entries[10] = &Entry{ID: 10, UserID: 5, TeamID: 1}
	store.entries[11] = &Entry{ID: 11, UserID: 5, TeamID: 1}

	err := svc.DeleteEntry(context.Background(), employee(5, 1), 10)
	if err == nil || apperr.Status(err) != 403 {
		t.Errorf("author without permission: err = %v, want 403", err)
	}

	if err := svc.DeleteEntry(context.Background(), manager(9, 1), 10); err != nil {
		t.Errorf("manager delete: %v", err)
	}
	if err := svc.DeleteEntry(context.Background(), superuser(1), 11); err != nil {
		t.Errorf("superuser delete: %v", err)
	}
	if len(store.deleted) != 2 {
		t.Errorf("deleted = %v, want two ids", store.deleted)
	}
}

func TestListEntriesScopeAndFilters(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeTeams{})

	// Employee is scoped to self; an explicit team filter is ignored.
	_, err := svc.ListEntries(context.Background(), employee(5, 1), ListFilters{TeamID: "2"})
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if store.lastQuery.Scope.UserID == nil || *store.lastQuery.Scope.UserID != 5 {
		t.Errorf("scope = %+v, want user 5", store.lastQuery.Scope)
	}

	// Manager is scoped to their team.
	_, err = svc.ListEntries(context.Background(), manager(9, 3), ListFilters{})
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if store.lastQuery.Scope.TeamID == nil || *store.lastQuery.Scope.TeamID != 3 {
		t.Errorf("scope = %+v, want team 3", store.lastQuery.Scope)
	}

	// Superuser with explicit team filter narrows to that team.
	_, err = svc.ListEntries(context.Background(), superuser(1), ListFilters{TeamID: "7"})
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if store.lastQuery.Scope.TeamID == nil || *store.lastQuery.Scope.TeamID != 7 {
		t.Errorf("scope = %+v, want team 7", store.lastQuery.Scope)
	}

	// Malformed filters are dropped, never an error.
	_, err = svc.ListEntries(context.Background(), superuser(1), ListFilters{
		WasteType: "styrofoam",
		StartDate: "not-a-date",
		EndDate:   "also-bad",
		TeamID:    "abc",
	})
	if err != nil {
		t.Fatalf("ListEntries with bad filters: %v", err)
	}
	q := store.lastQuery
	if q.WasteType != nil || !q.From.IsZero() || !q.To.IsZero() || !q.Scope.All {
		t.Errorf("query = %+v, want unfiltered all-scope", q)
	}

	// Well-formed filters survive.
	_, err = svc.ListEntries(context.Background(), superuser(1), ListFilters{
		WasteType: "plastic",
		StartDate: "2025-01-01",
		EndDate:   "2025-02-01T00:00:00",
	})
	if err != nil {
		t.Fatalf("ListEntries with filters: %v", err)
	}
	q = store.lastQuery
	if q.WasteType == nil || *q.WasteType != TypePlastic {
		t.Errorf("waste type filter = %v, want plastic", q.WasteType)
	}
	if q.From.IsZero() || q.To.IsZero() {
		t.Errorf("date filters not applied: %+v", q)
	}
}

func TestAggregate(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeTeams{})
	fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	store.aggs = []TypeAggregate{
		{Type: TypePaper, TotalWeight: 1.2345, EntryCount: 3},
		{Type: TypeGlass, TotalWeight: 2.5, EntryCount: 2},
	}

	report, err := svc.Aggregate(context.Background(), manager(9, 1), "week", ListFilters{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if report.Period != "week" {
		t.Errorf("period = %q", report.Period)
	}
	if want := fixed.AddDate(0, 0, -7); !report.StartDate.Equal(want) {
		t.Errorf("start = %v, want %v", report.StartDate, want)
	}
	if !report.EndDate.Equal(fixed) {
		t.Errorf("end = %v, want %v", report.EndDate, fixed)
	}
	if report.TotalEntries != 5 {
		t.Errorf("total entries = %d, want 5", report.TotalEntries)
	}
	if report.TotalWeight != 3.73 {
		t.Errorf("total weight = %v, want 3.73", report.TotalWeight)
	}
	if report.WasteByType["paper"] != 1.23 {
		t.Errorf("paper weight = %v, want 1.23", report.WasteByType["paper"])
	}
	if report.EntriesByType["glass"] != 2 {
		t.Errorf("glass count = %d, want 2", report.EntriesByType["glass"])
	}
	if store.lastQuery.Scope.TeamID == nil || *store.lastQuery.Scope.TeamID != 1 {
		t.Errorf("scope = %+v, want team 1", store.lastQuery.Scope)
	}
}

func TestAggregatePeriodsAndDenial(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeTeams{})

	_, err := svc.Aggregate(context.Background(), manager(9, 1), "fortnight", ListFilters{})
	if err == nil || apperr.Message(err) != "Invalid period" {
		t.Errorf("invalid period: err = %v", err)
	}

	_, err = svc.Aggregate(context.Background(), employee(5, 1), "week", ListFilters{})
	if err == nil || apperr.Status(err) != 403 {
		t.Errorf("employee aggregate: err = %v, want 403", err)
	}
	if err != nil && apperr.Message(err) != "Manager access required" {
		t.Errorf("employee aggregate message = %q", apperr.Message(err))
	}

	for period, days := range map[string]int{"week": 7, "month": 30, "year": 365} {
		fixed := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return fixed }
		report, err := svc.Aggregate(context.Background(), superuser(1), period, ListFilters{})
		if err != nil {
			t.Fatalf("Aggregate(%s): %v", period, err)
		}
		if want := fixed.AddDate(0, 0, -days); !report.StartDate.Equal(want) {
			t.Errorf("Aggregate(%s) start = %v, want %v", period, report.StartDate, want)
		}
	}
}
