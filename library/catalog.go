package library

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddBook registers a new title with totalCopies copies, all of them available.
func (lm *LibraryManager) AddBook(title, author, isbn, category string, totalCopies int) (Book, error) {
	title, author = strings.TrimSpace(title), strings.TrimSpace(author)
	if title == "" {
		return Book{}, invalidInput("title is required")
	}
	if author == "" {
		return Book{}, invalidInput("author is required")
	}
	if totalCopies < 1 {
		return Book{}, invalidInput("total copies must be a positive integer, got %d", totalCopies)
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	books, err := loadCollection[Book](lm.store, BooksCollection)
	if err != nil {
		return Book{}, err
	}
	book := Book{
		ID:              uuid.NewString(),
		Title:           title,
		Author:          author,
		ISBN:            strings.TrimSpace(isbn),
		Category:        strings.TrimSpace(category),
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		AddedAt:         lm.now(),
	}
	books = append(books, book)
	if err := lm.store.Save(Write{Collection: BooksCollection, Records: books}); err != nil {
		return Book{}, err
	}
	lm.logger.Info("book added", zap.String("bookId", book.ID), zap.Int("copies", totalCopies))
	return book, nil
}

// AddMember registers a borrower. Every field is required.
func (lm *LibraryManager) AddMember(name, rollNo, department, email string) (Member, error) {
	name, rollNo = strings.TrimSpace(name), strings.TrimSpace(rollNo)
	department, email = strings.TrimSpace(department), strings.TrimSpace(email)
	for _, f := range []struct{ label, value string }{
		{"name", name}, {"roll number", rollNo}, {"department", department}, {"email", email},
	} {
		if f.value == "" {
			return Member{}, invalidInput("%s is required", f.label)
		}
	}
	if !validEmail(email) {
		return Member{}, invalidInput("email %q is not valid", email)
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	members, err := loadCollection[Member](lm.store, MembersCollection)
	if err != nil {
		return Member{}, err
	}
	member := Member{
		ID:         uuid.NewString(),
		Name:       name,
		RollNo:     rollNo,
		Department: department,
		Email:      email,
		JoinedAt:   lm.now(),
	}
	members = append(members, member)
	if err := lm.store.Save(Write{Collection: MembersCollection, Records: members}); err != nil {
		return Member{}, err
	}
	lm.logger.Info("member added", zap.String("memberId", member.ID))
	return member, nil
}

func validEmail(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	return ok && local != "" && domain != "" && !strings.Contains(domain, "@")
}

// RemoveBook deletes a book. Books with copies still on loan cannot be removed.
func (lm *LibraryManager) RemoveBook(id string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	s, err := lm.loadState()
	if err != nil {
		return err
	}
	i := s.bookIndex(id)
	if i < 0 {
		return notFound("book", id)
	}
	if n := s.activeLoansFor(func(l Loan) bool { return l.BookID == id }); n > 0 {
		return &Error{Kind: ErrHasActiveLoans, Entity: "book", ID: id,
			Msg: "book " + id + " has copies on loan and cannot be removed"}
	}
	books := append(s.books[:i:i], s.books[i+1:]...)
	if err := lm.store.Save(Write{Collection: BooksCollection, Records: books}); err != nil {
		return err
	}
	lm.logger.Info("book removed", zap.String("bookId", id))
	return nil
}

// RemoveMember deletes a member. Members still holding books cannot be removed.
func (lm *LibraryManager) RemoveMember(id string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	s, err := lm.loadState()
	if err != nil {
		return err
	}
	i := s.memberIndex(id)
	if i < 0 {
		return notFound("member", id)
	}
	if n := s.activeLoansFor(func(l Loan) bool { return l.MemberID == id }); n > 0 {
		return &Error{Kind: ErrHasActiveLoans, Entity: "member", ID: id,
			Msg: "member " + id + " still has books on loan and cannot be removed"}
	}
	members := append(s.members[:i:i], s.members[i+1:]...)
	if err := lm.store.Save(Write{Collection: MembersCollection, Records: members}); err != nil {
		return err
	}
	lm.logger.Info("member removed", zap.String("memberId", id))
	return nil
}
