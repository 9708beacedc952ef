package waste

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/wasteer/wasteer/internal/apperr"
	"github.com/wasteer/wasteer/internal/authz"
	"github.com/wasteer/wasteer/internal/identity"
)

// EntryStore is the persistence surface the service depends on.
type EntryStore interface {
	Create(ctx context.Context, e *Entry) (*Entry, error)
	GetByID(ctx context.Context, id int64) (*Entry, error)
	Update(ctx context.Context, id int64, in UpdateEntryInput) (*Entry, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, q Query) ([]*Entry, error)
	AggregateByType(ctx context.Context, q Query) ([]TypeAggregate, error)
}

// TeamDirectory answers team existence checks during entry creation.
type TeamDirectory interface {
	TeamExists(ctx context.Context, id int64) (bool, error)
}

// Service applies ownership, team-resolution and visibility rules on top of
// the entry store.
type Service struct {
	entries EntryStore
	teams   TeamDirectory
	now     func() time.Time
}

// NewService creates a Service.
func NewService(entries EntryStore, teams TeamDirectory) *Service {
	return &Service{entries: entries, teams: teams, now: time.Now}
}

// CreateEntry validates input, resolves the owning team and records a new
// entry authored by the caller.
//
// Team resolution: a superuser must name the team explicitly; everyone else
// gets their own team, and having none is an error. A superuser-supplied
// team_id is never overridden by the superuser's own team.
func (s *Service) CreateEntry(ctx context.Context, caller *identity.User, in CreateEntryInput) (*Entry, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("Authentication required")
	}
	if in.WasteType == "" || in.Weight == nil || *in.Weight == 0 {
		return nil, apperr.Validation("Missing required fields")
	}
	wt, err := ParseType(in.WasteType)
	if err != nil {
		return nil, apperr.Validation("Invalid waste type")
	}

	var teamID int64
	if caller.IsSuperuser {
		if in.TeamID == nil {
			return nil, apperr.Validation("Team id required")
		}
		exists, err := s.teams.TeamExists(ctx, *in.TeamID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperr.Validation("Invalid team id")
		}
		teamID = *in.TeamID
	} else {
		if caller.TeamID == nil {
			return nil, apperr.Validation("User must be assigned to a team")
		}
		teamID = *caller.TeamID
	}

	ts := s.now().UTC()
	if in.Timestamp != nil {
		ts = *in.Timestamp
	}

	return s.entries.Create(ctx, &Entry{
		WasteType:   wt,
		Weight:      *in.Weight,
		Description: in.Description,
		Timestamp:   ts,
		UserID:      caller.ID,
		TeamID:      teamID,
	})
}

// GetEntry returns one entry if it falls inside the caller's visibility
// scope. Entries outside the scope read as not found rather than forbidden,
// so their existence is not leaked.
func (s *Service) GetEntry(ctx context.Context, caller *identity.User, id int64) (*Entry, error) {
	scope, err := authz.ScopeFor(caller, authz.IntentListEntries, nil)
	if err != nil {
		return nil, err
	}
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entryInScope(e, scope) {
		return nil, apperr.NotFound("Waste entry not found")
	}
	return e, nil
}

// UpdateEntry applies a partial update. The caller must be the author holding
// edit_wasteentry, a teammate holding manage_wasteentry, or a superuser.
func (s *Service) UpdateEntry(ctx context.Context, caller *identity.User, id int64, in UpdateEntryInput) (*Entry, error) {
	e, err := s.GetEntry(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := canMutate(caller, e, authz.PermEditWasteEntry); err != nil {
		return nil, err
	}
	if in.Weight != nil && *in.Weight == 0 {
		return nil, apperr.Validation("Missing required fields")
	}
	if in.WasteType != nil {
		if _, err := ParseType(*in.WasteType); err != nil {
			return nil, apperr.Validation("Invalid waste type")
		}
	}
	return s.entries.Update(ctx, id, in)
}

// DeleteEntry removes an entry under the same compound rule as UpdateEntry,
// with delete_wasteentry in place of edit_wasteentry.
func (s *Service) DeleteEntry(ctx context.Context, caller *identity.User, id int64) error {
	e, err := s.GetEntry(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := canMutate(caller, e, authz.PermDeleteWasteEntry); err != nil {
		return err
	}
	return s.entries.Delete(ctx, id)
}

// ListEntries returns the caller's visible entries, newest first. Filter
// values that fail to parse are dropped silently, matching the lenient query
// contract.
func (s *Service) ListEntries(ctx context.Context, caller *identity.User, f ListFilters) ([]*Entry, error) {
	explicitTeam := parseTeamID(f.TeamID)
	scope, err := authz.ScopeFor(caller, authz.IntentListEntries, explicitTeam)
	if err != nil {
		return nil, err
	}

	q := Query{Scope: scope}
	if wt, err := ParseType(f.WasteType); err == nil && f.WasteType != "" {
		q.WasteType = &wt
	}
	if t, ok := parseTimestamp(f.StartDate); ok {
		q.From = t
	}
	if t, ok := parseTimestamp(f.EndDate); ok {
		q.To = t
	}

	return s.entries.List(ctx, q)
}

// periodDays maps the recognized aggregation periods to lookback windows.
var periodDays = map[string]int{
	"week":  7,
	"month": 30,
	"year":  365,
}

// Aggregate produces the analytics report for a lookback period ending now.
// The period is strict; the waste_type filter is lenient like ListEntries.
func (s *Service) Aggregate(ctx context.Context, caller *identity.User, period string, f ListFilters) (*Report, error) {
	days, ok := periodDays[period]
	if !ok {
		return nil, apperr.Validation("Invalid period")
	}

	explicitTeam := parseTeamID(f.TeamID)
	scope, err := authz.ScopeFor(caller, authz.IntentAggregate, explicitTeam)
	if err != nil {
		return nil, err
	}

	end := s.now().UTC()
	start := end.AddDate(0, 0, -days)

	q := Query{Scope: scope, From: start}
	if wt, err := ParseType(f.WasteType); err == nil && f.WasteType != "" {
		q.WasteType = &wt
	}

	aggs, err := s.entries.AggregateByType(ctx, q)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Period:        period,
		StartDate:     start,
		EndDate:       end,
		WasteByType:   make(map[string]float64, len(aggs)),
		EntriesByType: make(map[string]int64, len(aggs)),
	}
	var totalWeight float64
	for _, a := range aggs {
		report.WasteByType[string(a.Type)] = round2(a.TotalWeight)
		report.EntriesByType[string(a.Type)] = a.EntryCount
		totalWeight += a.TotalWeight
		report.TotalEntries += a.EntryCount
	}
	report.TotalWeight = round2(totalWeight)

	return report, nil
}

// canMutate enforces the compound mutation rule for an entry already known to
// be visible to the caller.
func canMutate(caller *identity.User, e *Entry, ownPerm string) error {
	if caller.IsSuperuser {
		return nil
	}
	if e.UserID == caller.ID && caller.HasPermission(ownPerm) {
		return nil
	}
	if caller.TeamID != nil && *caller.TeamID == e.TeamID && caller.HasPermission(authz.PermManageWasteEntry) {
		return nil
	}
	return apperr.Forbidden("Access denied")
}

func entryInScope(e *Entry, scope authz.Scope) bool {
	switch {
	case scope.All:
		return true
	case scope.TeamID != nil:
		return e.TeamID == *scope.TeamID
	case scope.UserID != nil:
		return e.UserID == *scope.UserID
	default:
		return false
	}
}

// timestampLayouts are tried in order when parsing date filters. They mirror
// common ISO-8601 shapes, with and without offset or time component.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTeamID(s string) *int64 {
	if s == "" {
		return nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
