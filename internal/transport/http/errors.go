package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"quiz-insights-service/internal/domain"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case domain.IsNotFound(err), errors.Is(err, domain.ErrNoData):
		return http.StatusNotFound
	case domain.IsInvalidInput(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error) {
	status := statusFor(err)
	entry := logger.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"status":     status,
	})
	if status == http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
		render.Status(r, status)
		render.JSON(w, r, errorResponse{Message: "Internal server error", Error: err.Error()})
		return
	}
	entry.WithError(err).Debug("request rejected")
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Message: messageFor(err), Error: err.Error()})
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		return "Quiz not found"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return "Question not found"
	case errors.Is(err, domain.ErrNoData):
		return "No data found"
	case errors.Is(err, domain.ErrInvalidQuizType):
		return "Invalid quiz type"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"
	default:
		return "Invalid request"
	}
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Message: message})
}
