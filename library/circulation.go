package library

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const day = 24 * time.Hour

// Receipt describes a completed return.
type Receipt struct {
	Loan        Loan   `json:"loan"`
	Book        Book   `json:"book"`
	OverdueDays int    `json:"overdue_days"`
	Fine        int    `json:"fine"`
	Message     string `json:"message"`
}

// ComputeFine charges finePerDay for every started day between due and
// returned. Returning at or before due costs nothing.
func ComputeFine(due, returned time.Time, finePerDay int) (fine, overdueDays int) {
	late := returned.Sub(due)
	if late <= 0 {
		return 0, 0
	}
	overdueDays = int(late / day)
	if late%day != 0 {
		overdueDays++
	}
	return overdueDays * finePerDay, overdueDays
}

// IssueBook lends one copy of bookID to memberID.
//
// The book's decremented counter is written before the new loan. This is the
// reverse of writing the loan first: on a store that cannot commit both
// collections atomically, a crash between the two writes must leave
// availability understated, never a copy lent twice. Reconcile repairs the
// counter afterwards.
func (lm *LibraryManager) IssueBook(bookID, memberID string) (Loan, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	s, err := lm.loadState()
	if err != nil {
		return Loan{}, err
	}
	bi := s.bookIndex(bookID)
	if bi < 0 {
		return Loan{}, notFound("book", bookID)
	}
	book := &s.books[bi]
	if book.AvailableCopies <= 0 {
		return Loan{}, &Error{Kind: ErrUnavailable, Entity: "book", ID: bookID,
			Msg: fmt.Sprintf("no copies of %q are available", book.Title)}
	}
	if s.memberIndex(memberID) < 0 {
		return Loan{}, notFound("member", memberID)
	}

	now := lm.now()
	loan := Loan{
		ID:        uuid.NewString(),
		BookID:    bookID,
		MemberID:  memberID,
		IssueDate: now,
		DueDate:   now.Add(lm.loanPeriod),
		Status:    StatusIssued,
	}
	book.AvailableCopies--
	loans := append(s.loans, loan)

	if err := lm.store.Save(
		Write{Collection: BooksCollection, Records: s.books},
		Write{Collection: LoansCollection, Records: loans},
	); err != nil {
		lm.logger.Error("issue commit failed", zap.String("bookId", bookID), zap.String("memberId", memberID), zap.Error(err))
		return Loan{}, fmt.Errorf("commit issue: %w", err)
	}

	lm.logger.Info("book issued",
		zap.String("loanId", loan.ID),
		zap.String("bookId", bookID),
		zap.String("memberId", memberID),
		zap.Time("dueDate", loan.DueDate),
		zap.Int("availableCopies", book.AvailableCopies))
	return loan, nil
}

// ReturnBook closes loanID, computes its fine and puts the copy back on the shelf.
//
// The returned loan is written before the book's incremented counter, the
// reverse of putting the copy back first, so an interrupted commit again errs
// towards fewer available copies.
func (lm *LibraryManager) ReturnBook(loanID string) (Receipt, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	s, err := lm.loadState()
	if err != nil {
		return Receipt{}, err
	}
	li := s.loanIndex(loanID)
	if li < 0 {
		return Receipt{}, notFound("loan", loanID)
	}
	loan := &s.loans[li]
	if loan.Status == StatusReturned {
		return Receipt{}, &Error{Kind: ErrAlreadyReturned, Entity: "loan", ID: loanID,
			Msg: fmt.Sprintf("loan %s was already returned", loanID)}
	}

	bi := s.bookIndex(loan.BookID)
	if bi < 0 {
		lm.logger.Error("active loan references missing book", zap.String("loanId", loanID), zap.String("bookId", loan.BookID))
		return Receipt{}, &Error{Kind: ErrInvariantViolation, Entity: "loan", ID: loanID,
			Msg: fmt.Sprintf("loan %s references book %s which no longer exists", loanID, loan.BookID)}
	}
	book := &s.books[bi]
	if book.AvailableCopies+1 > book.TotalCopies {
		lm.logger.Error("return would exceed total copies",
			zap.String("loanId", loanID),
			zap.String("bookId", book.ID),
			zap.Int("availableCopies", book.AvailableCopies),
			zap.Int("totalCopies", book.TotalCopies))
		return Receipt{}, &Error{Kind: ErrInvariantViolation, Entity: "book", ID: book.ID,
			Msg: fmt.Sprintf("returning loan %s would raise %q above %d copies", loanID, book.Title, book.TotalCopies)}
	}

	returned := lm.now()
	fine, overdueDays := ComputeFine(loan.DueDate, returned, lm.finePerDay)
	loan.ReturnDate = &returned
	loan.Status = StatusReturned
	loan.Fine = fine
	book.AvailableCopies++

	if err := lm.store.Save(
		Write{Collection: LoansCollection, Records: s.loans},
		Write{Collection: BooksCollection, Records: s.books},
	); err != nil {
		lm.logger.Error("return commit failed", zap.String("loanId", loanID), zap.Error(err))
		return Receipt{}, fmt.Errorf("commit return: %w", err)
	}

	msg := fmt.Sprintf("Returned %q on time, no fine.", book.Title)
	if fine > 0 {
		msg = fmt.Sprintf("Returned %q %d day(s) late, fine: %d.", book.Title, overdueDays, fine)
	}
	lm.logger.Info("book returned",
		zap.String("loanId", loanID),
		zap.String("bookId", book.ID),
		zap.Int("overdueDays", overdueDays),
		zap.Int("fine", fine))
	return Receipt{Loan: *loan, Book: *book, OverdueDays: overdueDays, Fine: fine, Message: msg}, nil
}

// Discrepancy is a book whose stored availability disagrees with its loans.
type Discrepancy struct {
	BookID   string `json:"book_id"`
	Title    string `json:"title"`
	Stored   int    `json:"stored"`
	Expected int    `json:"expected"`
}

func discrepancies(s state) []Discrepancy {
	issued := make(map[string]int)
	for _, l := range s.loans {
		if l.Active() {
			issued[l.BookID]++
		}
	}
	out := []Discrepancy{}
	for _, b := range s.books {
		expected := b.TotalCopies - issued[b.ID]
		if b.AvailableCopies != expected {
			out = append(out, Discrepancy{BookID: b.ID, Title: b.Title, Stored: b.AvailableCopies, Expected: expected})
		}
	}
	return out
}

// Audit recomputes every book's availability from the loans and reports the
// books whose stored counter differs. Nothing is written.
func (lm *LibraryManager) Audit() ([]Discrepancy, error) {
	s, err := lm.snapshot()
	if err != nil {
		return nil, err
	}
	return discrepancies(s), nil
}

// Reconcile rewrites diverging availability counters to the value derived from
// the loans and returns what it fixed. A derived value below zero means more
// copies are on loan than the library owns; that is reported as an
// InvariantViolation and nothing is written.
func (lm *LibraryManager) Reconcile() ([]Discrepancy, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	s, err := lm.loadState()
	if err != nil {
		return nil, err
	}
	found := discrepancies(s)
	if len(found) == 0 {
		return found, nil
	}
	for _, d := range found {
		if d.Expected < 0 {
			lm.logger.Error("book over-issued", zap.String("bookId", d.BookID), zap.Int("expected", d.Expected))
			return found, &Error{Kind: ErrInvariantViolation, Entity: "book", ID: d.BookID,
				Msg: fmt.Sprintf("book %s has more active loans than copies", d.BookID)}
		}
		s.books[s.bookIndex(d.BookID)].AvailableCopies = d.Expected
		lm.logger.Warn("availability reconciled",
			zap.String("bookId", d.BookID),
			zap.Int("stored", d.Stored),
			zap.Int("expected", d.Expected))
	}
	if err := lm.store.Save(Write{Collection: BooksCollection, Records: s.books}); err != nil {
		return nil, fmt.Errorf("commit reconcile: %w", err)
	}
	return found, nil
}
