package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// WINDOW - Inclusive time range used by the time-window queries
// =============================================================================

// Window is an inclusive [Start, End] range at second granularity.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t is within [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return "[" + w.Start.Format(time.RFC3339) + ", " + w.End.Format(time.RFC3339) + "]"
}

// Between builds a window from caller-supplied bounds after checking order.
func Between(start, end time.Time) (Window, error) {
	if err := ValidateDateRange(start, end); err != nil {
		return Window{}, err
	}
	return Window{Start: start, End: end}, nil
}

// CurrentMonth is the calendar month containing now.
func CurrentMonth(now time.Time) Window {
	return MonthOf(now.Year(), now.Month(), now.Location())
}

// CurrentYear is the calendar year containing now.
func CurrentYear(now time.Time) Window {
	loc := now.Location()
	return Window{
		Start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc),
		End:   EndOfDay(time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, loc)),
	}
}

// LastNDays starts at midnight n days before now and ends at the close of
// today, matching "transaction_date >= today - n days".
func LastNDays(now time.Time, n int) (Window, error) {
	if err := ValidateDays(n); err != nil {
		return Window{}, err
	}
	return Window{
		Start: StartOfDay(now).AddDate(0, 0, -n),
		End:   EndOfDay(now),
	}, nil
}

// MonthOf is the calendar month (month, year) in loc.
func MonthOf(year int, month time.Month, loc *time.Location) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Window{
		Start: start,
		End:   EndOfDay(start.AddDate(0, 1, -1)),
	}
}

// MonthAndYear validates the pair before building the window.
func MonthAndYear(month, year int, loc *time.Location) (Window, error) {
	if err := ValidateMonthYear(month, year); err != nil {
		return Window{}, err
	}
	return MonthOf(year, time.Month(month), loc), nil
}

// WeekOf is the Monday-to-Sunday week containing t.
func WeekOf(t time.Time) Window {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	monday := StartOfDay(t).AddDate(0, 0, -offset)
	return Window{Start: monday, End: EndOfDay(monday.AddDate(0, 0, 6))}
}

// =============================================================================
// SCOPE - Which rows a window query covers
// =============================================================================

type ScopeKind int

const (
	ScopeAccount ScopeKind = iota
	ScopeUser
)

// Scope selects an account's rows or all rows of a user's accounts.
type Scope struct {
	Kind ScopeKind
	ID   string
}

func AccountScope(accountID string) Scope { return Scope{Kind: ScopeAccount, ID: accountID} }
func UserScope(userID string) Scope       { return Scope{Kind: ScopeUser, ID: userID} }

func (s Scope) String() string {
	if s.Kind == ScopeUser {
		return fmt.Sprintf("user:%s", s.ID)
	}
	return fmt.Sprintf("account:%s", s.ID)
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
