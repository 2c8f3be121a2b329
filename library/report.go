package library

import (
	"sort"
	"time"
)

// DefaultRecentLimit caps the recent-activity view.
const DefaultRecentLimit = 5

// Stats is the dashboard summary derived from the current collections.
type Stats struct {
	TotalTitles     int `json:"total_titles"`
	TotalCopies     int `json:"total_copies"`
	AvailableCopies int `json:"available_copies"`
	IssuedCount     int `json:"issued_count"`
	OverdueCount    int `json:"overdue_count"`
	MemberCount     int `json:"member_count"`
	FinesCollected  int `json:"fines_collected"`
}

// ComputeStats projects the collections into Stats as of now.
func ComputeStats(books []Book, members []Member, loans []Loan, now time.Time) Stats {
	st := Stats{TotalTitles: len(books), MemberCount: len(members)}
	for _, b := range books {
		st.TotalCopies += b.TotalCopies
		st.AvailableCopies += b.AvailableCopies
	}
	for _, l := range loans {
		switch {
		case l.Active():
			st.IssuedCount++
			if l.Overdue(now) {
				st.OverdueCount++
			}
		default:
			st.FinesCollected += l.Fine
		}
	}
	return st
}

// RecentActivity returns up to limit loans, most recently created first.
// loans must be in creation order, as every collection is stored.
// A non-positive limit means DefaultRecentLimit.
func RecentActivity(loans []Loan, limit int) []Loan {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	out := make([]Loan, 0, min(limit, len(loans)))
	for i := len(loans) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, loans[i])
	}
	return out
}

// OverdueLoans lists the active loans past due at now, oldest due date first.
func OverdueLoans(loans []Loan, now time.Time) []Loan {
	out := []Loan{}
	for _, l := range loans {
		if l.Overdue(now) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

// Stats summarises the library as of the manager's clock.
func (lm *LibraryManager) Stats() (Stats, error) {
	s, err := lm.snapshot()
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(s.books, s.members, s.loans, lm.now()), nil
}

// RecentActivity returns the latest loans for display.
func (lm *LibraryManager) RecentActivity(limit int) ([]Loan, error) {
	loans, err := lm.GetLoans()
	if err != nil {
		return nil, err
	}
	return RecentActivity(loans, limit), nil
}

// OverdueLoans lists loans past due as of the manager's clock.
func (lm *LibraryManager) OverdueLoans() ([]Loan, error) {
	loans, err := lm.GetLoans()
	if err != nil {
		return nil, err
	}
	return OverdueLoans(loans, lm.now()), nil
}

// OverdueLoansForMember lists the member's loans past due as of the manager's clock.
func (lm *LibraryManager) OverdueLoansForMember(memberID string) ([]Loan, error) {
	loans, err := lm.LoansForMember(memberID, true)
	if err != nil {
		return nil, err
	}
	return OverdueLoans(loans, lm.now()), nil
}
