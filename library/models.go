package library

import "time"

// Collection names understood by every Store.
const (
	BooksCollection   = "books"
	MembersCollection = "members"
	LoansCollection   = "loans"
)

// LoanStatus is the lifecycle state of a Loan. ISSUED is initial, RETURNED terminal.
type LoanStatus string

const (
	StatusIssued   LoanStatus = "ISSUED"
	StatusReturned LoanStatus = "RETURNED"
)

// Book represents a title held by the library and how many of its copies are on the shelf.
type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	Category        string    `json:"category"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	AddedAt         time.Time `json:"added_at"`
}

// Member represents a registered borrower.
type Member struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	RollNo     string    `json:"roll_no"`
	Department string    `json:"department"`
	Email      string    `json:"email"`
	JoinedAt   time.Time `json:"joined_at"`
}

// Loan records one copy of a book borrowed by one member.
type Loan struct {
	ID         string     `json:"id"`
	BookID     string     `json:"book_id"`
	MemberID   string     `json:"member_id"`
	IssueDate  time.Time  `json:"issue_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Status     LoanStatus `json:"status"`
	Fine       int        `json:"fine"`
}

// Active reports whether the loan still holds a copy.
func (l Loan) Active() bool { return l.Status == StatusIssued }

// Overdue reports whether an active loan is past its due date at now.
func (l Loan) Overdue(now time.Time) bool {
	return l.Active() && l.DueDate.Before(now)
}

func (l Loan) clone() Loan {
	if l.ReturnDate != nil {
		rd := *l.ReturnDate
		l.ReturnDate = &rd
	}
	return l
}
