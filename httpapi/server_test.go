package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation/library"
)

type envelope struct {
	OK      bool            `json:"ok"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newServer(t *testing.T) (*library.LibraryManager, http.Handler) {
	t.Helper()
	mgr, err := library.NewManager(library.NewMemoryStore())
	require.NoError(t, err)
	return mgr, New(mgr, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealth(t *testing.T) {
	_, h := newServer(t)
	code, env := do(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.OK)
}

func TestCirculationOverHTTP(t *testing.T) {
	_, h := newServer(t)

	code, env := do(t, h, http.MethodPost, "/api/books", bookRequest{Title: "Dune", Author: "Herbert", TotalCopies: 1})
	require.Equal(t, http.StatusCreated, code)
	book := decode[library.Book](t, env)

	code, env = do(t, h, http.MethodPost, "/api/members", memberRequest{Name: "Alice", RollNo: "R1", Department: "CS", Email: "a@x.io"})
	require.Equal(t, http.StatusCreated, code)
	member := decode[library.Member](t, env)

	code, env = do(t, h, http.MethodPost, "/api/loans", issueRequest{BookID: book.ID, MemberID: member.ID})
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.OK)
	loan := decode[library.Loan](t, env)

	code, env = do(t, h, http.MethodPost, "/api/loans", issueRequest{BookID: book.ID, MemberID: member.ID})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.OK)
	assert.Contains(t, env.Message, "no copies")

	code, env = do(t, h, http.MethodDelete, "/api/books/"+book.ID, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = do(t, h, http.MethodGet, "/api/loans?status=active", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]library.Loan](t, env), 1)

	code, env = do(t, h, http.MethodPost, "/api/loans/"+loan.ID+"/return", nil)
	require.Equal(t, http.StatusOK, code)
	receipt := decode[library.Receipt](t, env)
	assert.Equal(t, 0, receipt.Fine)
	assert.Equal(t, receipt.Message, env.Message)

	code, env = do(t, h, http.MethodPost, "/api/loans/"+loan.ID+"/return", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.OK)

	code, env = do(t, h, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, code)
	st := decode[library.Stats](t, env)
	assert.Equal(t, 1, st.TotalCopies)
	assert.Equal(t, 0, st.IssuedCount)
}

func TestErrorStatuses(t *testing.T) {
	_, h := newServer(t)

	code, env := do(t, h, http.MethodPost, "/api/books", bookRequest{Title: "Dune", Author: "Herbert", TotalCopies: 0})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.OK)

	code, _ = do(t, h, http.MethodDelete, "/api/members/ghost", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodPost, "/api/loans/ghost/return", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodGet, "/api/loans?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/api/members", map[string]any{"name": 42})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLoansFilteredByMemberAndStatus(t *testing.T) {
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	mgr, err := library.NewManager(library.NewMemoryStore(), library.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	h := New(mgr, nil).Handler()

	book, err := mgr.AddBook("Dune", "Frank Herbert", "", "", 3)
	require.NoError(t, err)
	alice, err := mgr.AddMember("Alice", "R1", "CS", "alice@uni.edu")
	require.NoError(t, err)
	bob, err := mgr.AddMember("Bob", "R2", "EE", "bob@uni.edu")
	require.NoError(t, err)

	done, err := mgr.IssueBook(book.ID, alice.ID)
	require.NoError(t, err)
	_, err = mgr.ReturnBook(done.ID)
	require.NoError(t, err)
	late, err := mgr.IssueBook(book.ID, alice.ID)
	require.NoError(t, err)
	_, err = mgr.IssueBook(book.ID, bob.ID)
	require.NoError(t, err)

	now = now.Add(8 * 24 * time.Hour)

	code, env := do(t, h, http.MethodGet, "/api/loans?member="+alice.ID+"&status=overdue", nil)
	require.Equal(t, http.StatusOK, code)
	loans := decode[[]library.Loan](t, env)
	require.Len(t, loans, 1)
	assert.Equal(t, late.ID, loans[0].ID)

	code, env = do(t, h, http.MethodGet, "/api/loans?member="+alice.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]library.Loan](t, env), 2)

	code, env = do(t, h, http.MethodGet, "/api/loans?status=overdue", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]library.Loan](t, env), 2)

	code, _ = do(t, h, http.MethodGet, "/api/loans?member=ghost&status=overdue", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodGet, "/api/loans?member="+alice.ID+"&status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSearchBooks(t *testing.T) {
	mgr, h := newServer(t)
	_, err := mgr.AddBook("Emma", "Jane Austen", "", "classics", 1)
	require.NoError(t, err)
	_, err = mgr.AddBook("Dune", "Frank Herbert", "", "sci-fi", 1)
	require.NoError(t, err)

	code, env := do(t, h, http.MethodGet, "/api/books?q=austen", nil)
	require.Equal(t, http.StatusOK, code)
	books := decode[[]library.Book](t, env)
	require.Len(t, books, 1)
	assert.Equal(t, "Emma", books[0].Title)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(&library.Error{Kind: library.ErrInvariantViolation}))
	assert.Equal(t, http.StatusConflict, statusFor(&library.Error{Kind: library.ErrHasActiveLoans}))
}
