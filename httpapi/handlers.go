package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-circulation/library"
)

type bookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	Category    string `json:"category"`
	TotalCopies int    `json:"total_copies"`
}

type memberRequest struct {
	Name       string `json:"name"`
	RollNo     string `json:"roll_no"`
	Department string `json:"department"`
	Email      string `json:"email"`
}

type issueRequest struct {
	BookID   string `json:"book_id"`
	MemberID string `json:"member_id"`
}

type outcomeWith[T any] struct {
	library.Outcome
	Data T `json:"data"`
}

func respond[T any](c *gin.Context, status int, msg string, data T) {
	c.JSON(status, outcomeWith[T]{Outcome: library.NewOutcome(msg, nil), Data: data})
}

func badJSON(err error) error {
	return &library.Error{Kind: library.ErrInvalidInput, Msg: "invalid json: " + err.Error()}
}

func (s *Server) handleListBooks(c *gin.Context) {
	var (
		books []library.Book
		err   error
	)
	if q := c.Query("q"); q != "" {
		books, err = s.mgr.SearchBooks(q)
	} else {
		books, err = s.mgr.GetBooks()
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", books)
}

func (s *Server) handleAddBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badJSON(err))
		return
	}
	book, err := s.mgr.AddBook(req.Title, req.Author, req.ISBN, req.Category, req.TotalCopies)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "book added", book)
}

func (s *Server) handleRemoveBook(c *gin.Context) {
	if err := s.mgr.RemoveBook(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, library.NewOutcome("book removed", nil))
}

func (s *Server) handleListMembers(c *gin.Context) {
	members, err := s.mgr.GetMembers()
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", members)
}

func (s *Server) handleAddMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badJSON(err))
		return
	}
	member, err := s.mgr.AddMember(req.Name, req.RollNo, req.Department, req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "member added", member)
}

func (s *Server) handleRemoveMember(c *gin.Context) {
	if err := s.mgr.RemoveMember(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, library.NewOutcome("member removed", nil))
}

// handleListLoans supports ?member=<id>, ?status=active and ?status=overdue.
func (s *Server) handleListLoans(c *gin.Context) {
	var (
		loans []library.Loan
		err   error
	)
	member, status := c.Query("member"), c.Query("status")
	switch {
	case status != "" && status != "active" && status != "overdue":
		err = &library.Error{Kind: library.ErrInvalidInput, Msg: "status must be active or overdue"}
	case member != "" && status == "overdue":
		loans, err = s.mgr.OverdueLoansForMember(member)
	case member != "":
		loans, err = s.mgr.LoansForMember(member, status == "active")
	case status == "active":
		loans, err = s.mgr.ActiveLoans()
	case status == "overdue":
		loans, err = s.mgr.OverdueLoans()
	default:
		loans, err = s.mgr.GetLoans()
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", loans)
}

func (s *Server) handleIssue(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badJSON(err))
		return
	}
	loan, err := s.mgr.IssueBook(req.BookID, req.MemberID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "book issued, due "+loan.DueDate.Format("2006-01-02"), loan)
}

func (s *Server) handleReturn(c *gin.Context) {
	receipt, err := s.mgr.ReturnBook(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, receipt.Message, receipt)
}

func (s *Server) handleStats(c *gin.Context) {
	st, err := s.mgr.Stats()
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", st)
}
