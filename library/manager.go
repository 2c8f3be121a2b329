package library

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultLoanPeriodDays = 7
	DefaultFinePerDay     = 1
)

// LibraryManager owns the Store and funnels every catalog and circulation
// mutation through one critical section, so no caller ever observes a
// partially applied operation.
type LibraryManager struct {
	store Store

	mu         sync.RWMutex
	loanPeriod time.Duration
	finePerDay int
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures a LibraryManager.
type Option func(*LibraryManager) error

// WithLoanPeriodDays sets how many days after issue a loan falls due.
func WithLoanPeriodDays(days int) Option {
	return func(lm *LibraryManager) error {
		if days <= 0 {
			return invalidInput("loan period must be positive, got %d", days)
		}
		lm.loanPeriod = time.Duration(days) * 24 * time.Hour
		return nil
	}
}

// WithFinePerDay sets the fine charged for every started day past the due date.
func WithFinePerDay(units int) Option {
	return func(lm *LibraryManager) error {
		if units < 0 {
			return invalidInput("fine per day must not be negative, got %d", units)
		}
		lm.finePerDay = units
		return nil
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(lm *LibraryManager) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		lm.now = now
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(lm *LibraryManager) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		lm.logger = logger
		return nil
	}
}

// NewManager builds a LibraryManager over an already opened Store.
func NewManager(store Store, opts ...Option) (*LibraryManager, error) {
	if store == nil {
		return nil, errors.New("store must not be nil")
	}
	lm := &LibraryManager{
		store:      store,
		loanPeriod: DefaultLoanPeriodDays * 24 * time.Hour,
		finePerDay: DefaultFinePerDay,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(lm); err != nil {
			return nil, err
		}
	}
	return lm, nil
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(dbPath string, opts ...Option) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	lm, err := NewManager(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return lm, nil
}

// Close closes the underlying store.
func (lm *LibraryManager) Close() error { return lm.store.Close() }

// LoanPeriod is the configured loan length.
func (lm *LibraryManager) LoanPeriod() time.Duration { return lm.loanPeriod }

// FinePerDay is the configured daily fine.
func (lm *LibraryManager) FinePerDay() int { return lm.finePerDay }

// ------------------ Snapshot loading ------------------

// state is the transient in-memory copy an operation works on.
type state struct {
	books   []Book
	members []Member
	loans   []Loan
}

func (lm *LibraryManager) loadState() (state, error) {
	var (
		s   state
		err error
	)
	if s.books, err = loadCollection[Book](lm.store, BooksCollection); err != nil {
		return state{}, err
	}
	if s.members, err = loadCollection[Member](lm.store, MembersCollection); err != nil {
		return state{}, err
	}
	if s.loans, err = loadCollection[Loan](lm.store, LoansCollection); err != nil {
		return state{}, err
	}
	return s, nil
}

func (s state) bookIndex(id string) int {
	for i := range s.books {
		if s.books[i].ID == id {
			return i
		}
	}
	return -1
}

func (s state) memberIndex(id string) int {
	for i := range s.members {
		if s.members[i].ID == id {
			return i
		}
	}
	return -1
}

func (s state) loanIndex(id string) int {
	for i := range s.loans {
		if s.loans[i].ID == id {
			return i
		}
	}
	return -1
}

func (s state) activeLoansFor(match func(Loan) bool) int {
	n := 0
	for _, l := range s.loans {
		if l.Active() && match(l) {
			n++
		}
	}
	return n
}

func (s state) clone() state {
	out := state{
		books:   append([]Book(nil), s.books...),
		members: append([]Member(nil), s.members...),
		loans:   make([]Loan, len(s.loans)),
	}
	for i, l := range s.loans {
		out.loans[i] = l.clone()
	}
	return out
}

// ------------------ Queries ------------------

func (lm *LibraryManager) snapshot() (state, error) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.loadState()
}

// GetBooks returns every book in insertion order.
func (lm *LibraryManager) GetBooks() ([]Book, error) {
	s, err := lm.snapshot()
	return s.books, err
}

// GetMembers returns every member in insertion order.
func (lm *LibraryManager) GetMembers() ([]Member, error) {
	s, err := lm.snapshot()
	return s.members, err
}

// GetLoans returns every loan in creation order.
func (lm *LibraryManager) GetLoans() ([]Loan, error) {
	s, err := lm.snapshot()
	return s.loans, err
}

func (lm *LibraryManager) GetBook(id string) (Book, error) {
	s, err := lm.snapshot()
	if err != nil {
		return Book{}, err
	}
	i := s.bookIndex(id)
	if i < 0 {
		return Book{}, notFound("book", id)
	}
	return s.books[i], nil
}

func (lm *LibraryManager) GetMember(id string) (Member, error) {
	s, err := lm.snapshot()
	if err != nil {
		return Member{}, err
	}
	i := s.memberIndex(id)
	if i < 0 {
		return Member{}, notFound("member", id)
	}
	return s.members[i], nil
}

func (lm *LibraryManager) GetLoan(id string) (Loan, error) {
	s, err := lm.snapshot()
	if err != nil {
		return Loan{}, err
	}
	i := s.loanIndex(id)
	if i < 0 {
		return Loan{}, notFound("loan", id)
	}
	return s.loans[i], nil
}

// SearchBooks does a case-insensitive substring match over title, author,
// ISBN and category. A blank query matches nothing.
func (lm *LibraryManager) SearchBooks(q string) ([]Book, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []Book{}, nil
	}
	books, err := lm.GetBooks()
	if err != nil {
		return nil, err
	}
	results := []Book{}
	for _, b := range books {
		haystack := strings.ToLower(strings.Join([]string{b.Title, b.Author, b.ISBN, b.Category}, "\x00"))
		if strings.Contains(haystack, q) {
			results = append(results, b)
		}
	}
	return results, nil
}

// LoansForMember lists the member's loans, optionally only the active ones.
func (lm *LibraryManager) LoansForMember(memberID string, activeOnly bool) ([]Loan, error) {
	s, err := lm.snapshot()
	if err != nil {
		return nil, err
	}
	if s.memberIndex(memberID) < 0 {
		return nil, notFound("member", memberID)
	}
	loans := []Loan{}
	for _, l := range s.loans {
		if l.MemberID == memberID && (!activeOnly || l.Active()) {
			loans = append(loans, l)
		}
	}
	return loans, nil
}

// ActiveLoans lists every loan still holding a copy.
func (lm *LibraryManager) ActiveLoans() ([]Loan, error) {
	loans, err := lm.GetLoans()
	if err != nil {
		return nil, err
	}
	active := []Loan{}
	for _, l := range loans {
		if l.Active() {
			active = append(active, l)
		}
	}
	return active, nil
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b Book) string {
	return fmt.Sprintf("%-36s %-30s %-25s %d/%d", b.ID, truncate(b.Title, 30), truncate(b.Author, 25), b.AvailableCopies, b.TotalCopies)
}

func truncate(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength-3]) + "..."
}
