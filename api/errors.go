package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/docent"
	"github.com/poiesic/docent/chat"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/extract"
	"github.com/poiesic/docent/session"
)

// errorResponse is the body of every failed request. Error is safe to show
// to end users; backend detail is only logged.
type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	case errors.Is(err, chat.ErrEmptyQuestion), errors.Is(err, core.ErrInvalidNamespace):
		return http.StatusBadRequest
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, docent.ErrNothingIngested), errors.Is(err, extract.ErrMalformedDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNoNamespace), errors.Is(err, session.ErrNotChatting),
		errors.Is(err, session.ErrSessionChanged):
		return http.StatusConflict
	case errors.Is(err, core.ErrEmbedding), errors.Is(err, core.ErrRewrite), errors.Is(err, core.ErrSynthesis):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "status", status, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", c.FullPath(), "status", status, "err", err)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: docent.UserMessage(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func tooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "document is too large"})
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
