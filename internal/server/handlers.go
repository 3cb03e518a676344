package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/verba/internal/conversation"
	"github.com/abhisek/verba/internal/logger"
	"github.com/abhisek/verba/internal/store"
)

type handlers struct {
	deps Deps
	log  *logger.Logger
}

type chatRequest struct {
	Message             string                    `json:"message"`
	ConversationHistory []conversation.StoredTurn `json:"conversationHistory"`
}

type userView struct {
	ID    uint               `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Goal  string             `json:"goal"`
	Level conversation.Level `json:"level"`
}

func viewUser(u *store.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Goal: u.Goal, Level: u.Level}
}

type onboardingResponse struct {
	Message            string   `json:"message"`
	User               userView `json:"user"`
	OnboardingComplete bool     `json:"onboardingComplete"`
}

type lessonResponse struct {
	Lesson conversation.Lesson `json:"lesson"`
}

type goalRequest struct {
	Goal string `json:"goal"`
}

type goalResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	User    userView `json:"user"`
}

func (h *handlers) healthz(c *gin.Context) {
	if h.deps.Store != nil {
		if err := h.deps.Store.Ping(c.Request.Context()); err != nil {
			h.log.Warn("health check failed", "error", err)
			c.String(http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	c.String(http.StatusOK, "ok")
}

func (h *handlers) me(c *gin.Context) {
	u, err := h.deps.Users.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, viewUser(u))
}

func (h *handlers) bindChat(c *gin.Context) (chatRequest, bool) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return req, false
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(c, "message is required")
		return req, false
	}
	return req, true
}

func (h *handlers) onboardingChat(c *gin.Context) {
	req, ok := h.bindChat(c)
	if !ok {
		return
	}
	res, err := h.deps.Onboarding.Chat(c.Request.Context(), currentUserID(c), req.Message, req.ConversationHistory)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, onboardingResponse{
		Message:            res.Reply,
		User:               viewUser(res.User),
		OnboardingComplete: res.OnboardingComplete,
	})
}

func (h *handlers) lessonStart(c *gin.Context) {
	req, ok := h.bindChat(c)
	if !ok {
		return
	}
	lesson, err := h.deps.Lessons.Start(c.Request.Context(), currentUserID(c), req.Message, req.ConversationHistory)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lessonResponse{Lesson: lesson})
}

func (h *handlers) conversation(c *gin.Context) {
	view, err := h.deps.Lessons.Conversation(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) changeGoal(c *gin.Context) {
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	u, err := h.deps.Onboarding.ChangeGoal(c.Request.Context(), currentUserID(c), req.Goal)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, goalResponse{Success: true, Message: "Goal updated successfully.", User: viewUser(u)})
}
