package waste

import (
	"time"

	"github.com/wasteer/wasteer/internal/authz"
)

// Entry is one recorded waste disposal event. The author and team are fixed
// at creation and never reassigned.
type Entry struct {
	ID          int64     `json:"id"`
	WasteType   Type      `json:"waste_type"`
	Weight      float64   `json:"weight"`
	Description *string   `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	UserID      int64     `json:"user_id"`
	TeamID      int64     `json:"team_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Query combines the caller's visibility scope with additive filters. Zero
// time bounds and a nil type mean "no filter".
type Query struct {
	Scope     authz.Scope
	WasteType *Type
	From      time.Time
	To        time.Time
}

// TypeAggregate is one row of a per-type aggregation.
type TypeAggregate struct {
	Type        Type
	TotalWeight float64
	EntryCount  int64
}

// Report is the analytics aggregation result. Weights are rounded to two
// decimals for display; stored weights stay unrounded.
type Report struct {
	Period        string             `json:"period"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `json:"end_date"`
	TotalEntries  int64              `json:"total_entries"`
	TotalWeight   float64            `json:"total_weight"`
	WasteByType   map[string]float64 `json:"waste_by_type"`
	EntriesByType map[string]int64   `json:"entries_by_type"`
}

// CreateEntryInput holds raw creation fields. Pointers distinguish absent
// from zero-valued fields.
type CreateEntryInput struct {
	WasteType   string     `json:"waste_type"`
	Weight      *float64   `json:"weight"`
	Description *string    `json:"description"`
	Timestamp   *time.Time `json:"timestamp"`
	TeamID      *int64     `json:"team_id"`
}

// UpdateEntryInput holds optional fields for a partial entry update. Author
// and team are deliberately not updatable.
type UpdateEntryInput struct {
	WasteType   *string    `json:"waste_type"`
	Weight      *float64   `json:"weight"`
	Description *string    `json:"description"`
	Timestamp   *time.Time `json:"timestamp"`
}

// ListFilters carries the raw optional query parameters for listing.
// Malformed values are silently ignored, by contract.
type ListFilters struct {
	WasteType string
	StartDate string
	EndDate   string
	TeamID    string
}
