package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"library-circulation/library"
)

// Server exposes the library manager as a JSON API.
type Server struct {
	mgr    *library.LibraryManager
	logger *zap.Logger
}

func New(mgr *library.LibraryManager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{mgr: mgr, logger: logger}
}

func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)

	api.GET("/books", s.handleListBooks)
	api.POST("/books", s.handleAddBook)
	api.DELETE("/books/:id", s.handleRemoveBook)

	api.GET("/members", s.handleListMembers)
	api.POST("/members", s.handleAddMember)
	api.DELETE("/members/:id", s.handleRemoveMember)

	api.GET("/loans", s.handleListLoans)
	api.POST("/loans", s.handleIssue)
	api.POST("/loans/:id/return", s.handleReturn)

	api.GET("/stats", s.handleStats)
	return r
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Info("http",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("took", time.Since(start)))
}

// statusFor maps a library error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrUnavailable),
		errors.Is(err, library.ErrAlreadyReturned),
		errors.Is(err, library.ErrHasActiveLoans):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, library.NewOutcome("", err))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
