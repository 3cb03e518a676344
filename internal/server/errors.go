package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/verba/internal/auth"
	"github.com/abhisek/verba/internal/conversation"
	"github.com/abhisek/verba/internal/lessons"
	"github.com/abhisek/verba/internal/llm"
	"github.com/abhisek/verba/internal/logger"
	"github.com/abhisek/verba/internal/onboarding"
	"github.com/abhisek/verba/internal/store"
)

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// apiError pairs a status and code with the message shown to clients.
type apiError struct {
	Status  int
	Code    string
	Message string
}

// classify maps domain errors to HTTP responses. Messages for 5xx never
// expose upstream output.
func classify(err error) apiError {
	var (
		rateLimit   *llm.ErrRateLimit
		unavailable *llm.ErrProviderUnavailable
		blocked     *llm.ErrContentBlocked
		malformed   *conversation.ErrMalformedOutput
		incomplete  *conversation.ErrIncompleteLesson
		truncated   *llm.ErrMaxTokensExceeded
	)
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return apiError{http.StatusUnauthorized, "unauthorized", "missing or invalid token"}
	case errors.Is(err, onboarding.ErrUserNotFound), errors.Is(err, store.ErrNotFound):
		return apiError{http.StatusNotFound, "not_found", "not found"}
	case errors.Is(err, lessons.ErrOnboardingIncomplete):
		return apiError{http.StatusBadRequest, "onboarding_incomplete", "Complete onboarding first"}
	case errors.Is(err, onboarding.ErrEmptyGoal):
		return apiError{http.StatusBadRequest, "invalid_request", err.Error()}
	case errors.As(err, &blocked):
		return apiError{http.StatusBadRequest, "content_blocked", "Content blocked by safety guidelines"}
	case errors.As(err, &rateLimit):
		return apiError{http.StatusTooManyRequests, "rate_limited", "Too many requests. Please wait a moment and try again."}
	case errors.As(err, &unavailable) && unavailable.Overloaded():
		return apiError{http.StatusServiceUnavailable, "unavailable", "Service temporarily unavailable. Please try again in a moment."}
	case errors.As(err, &malformed), errors.As(err, &incomplete):
		return apiError{http.StatusInternalServerError, "invalid_lesson", "Could not generate lesson"}
	case errors.Is(err, llm.ErrEmptyGeneration), errors.As(err, &truncated):
		return apiError{http.StatusInternalServerError, "empty_generation", "Could not generate a response"}
	default:
		return apiError{http.StatusInternalServerError, "internal", "Internal server error"}
	}
}

// respondError writes the envelope for err and logs it. Raw model output
// is logged by the services that received it.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	ae := classify(err)
	if ae.Status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "status", ae.Status, "error", err)
	} else {
		log.Debug("request rejected", "path", c.FullPath(), "status", ae.Status, "error", err)
	}
	c.AbortWithStatusJSON(ae.Status, ErrorEnvelope{Error: APIError{Message: ae.Message, Code: ae.Code}})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{Message: msg, Code: "invalid_request"}})
}
