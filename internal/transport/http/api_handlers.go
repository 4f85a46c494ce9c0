package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ramadan-assistant/internal/content"
	"github.com/vovakirdan/ramadan-assistant/internal/core"
	"github.com/vovakirdan/ramadan-assistant/internal/proto"
	"github.com/vovakirdan/ramadan-assistant/internal/qa"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	hub    *core.Hub
	tokens *sessionTokens
	log    *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, tokens *sessionTokens, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:    hub,
		tokens: tokens,
		log:    logger,
	}
}

// SessionResponse is returned when a session is opened.
type SessionResponse struct {
	Token string      `json:"token"`
	State proto.State `json:"state"`
}

// TabRequest represents the tab selection request body.
type TabRequest struct {
	Tab string `json:"tab" binding:"required"`
}

// NightRequest represents the night selection request body.
type NightRequest struct {
	Night int `json:"night" binding:"required"`
}

// TextRequest carries draft or chat text.
type TextRequest struct {
	Text string `json:"text"`
}

// AskRequest represents a stateless question.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse holds the canned answer.
type AskResponse struct {
	Answer string `json:"answer"`
}

// ContentResponse lists the compiled-in page content.
type ContentResponse struct {
	Title           string                 `json:"title"`
	Greeting        string                 `json:"greeting"`
	Tabs            []TabInfo              `json:"tabs"`
	Nights          []int                  `json:"nights"`
	Supplications   []content.Supplication `json:"supplications"`
	Reminders       []string               `json:"reminders"`
	Activities      []string               `json:"activities"`
	SuggestedTopics []string               `json:"suggested_topics"`
	Questions       []string               `json:"questions"`
}

// TabInfo names a tab and its label.
type TabInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// OpenSession creates a session and returns its token.
// POST /api/session
func (h *APIHandlers) OpenSession(c *gin.Context) {
	snap, err := h.hub.OpenSession(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := h.tokens.issue(snap.ID)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", snap.ID).Msg("failed to issue session token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	h.tokens.setCookie(c.Writer, token, c.Request.TLS != nil)

	c.JSON(http.StatusCreated, SessionResponse{Token: token, State: stateFromSnapshot(snap)})
}

// GetState returns the current session state.
// GET /api/state
func (h *APIHandlers) GetState(c *gin.Context) {
	h.respond(c, http.StatusOK, func(ctx context.Context, id string) (core.Snapshot, error) {
		return h.hub.Snapshot(ctx, id)
	})
}

// SelectTab changes the active tab.
// PUT /api/state/tab
func (h *APIHandlers) SelectTab(c *gin.Context) {
	var req TabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid tab request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: core.ErrCodeBadRequest})
		return
	}
	tab, err := content.ParseTab(req.Tab)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: core.ErrCodeBadRequest})
		return
	}

	h.respond(c, http.StatusOK, func(ctx context.Context, id string) (core.Snapshot, error) {
		return h.hub.SelectTab(ctx, id, tab)
	})
}

// SelectNight changes the displayed night.
// PUT /api/state/night
func (h *APIHandlers) SelectNight(c *gin.Context) {
	var req NightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid night request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: core.ErrCodeBadRequest})
		return
	}
	night := content.Night(req.Night)
	if !night.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: core.ErrUnknownNight.Message, Code: core.ErrCodeBadRequest})
		return
	}

	h.respond(c, http.StatusOK, func(ctx context.Context, id string) (core.Snapshot, error) {
		return h.hub.SelectNight(ctx, id, night)
	})
}

// UpdateDraft stores the unsent chat text.
// PUT /api/state/draft
func (h *APIHandlers) UpdateDraft(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: core.ErrCodeBadRequest})
		return
	}

	h.respond(c, http.StatusOK, func(ctx context.Context, id string) (core.Snapshot, error) {
		return h.hub.UpdateDraft(ctx, id, req.Text)
	})
}

// SubmitMessage sends a chat message. The answer arrives later.
// POST /api/chat
func (h *APIHandlers) SubmitMessage(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: core.ErrCodeBadRequest})
		return
	}

	h.respond(c, http.StatusAccepted, func(ctx context.Context, id string) (core.Snapshot, error) {
		return h.hub.SubmitMessage(ctx, id, req.Text)
	})
}

// PrayerTimes returns the session's prayer times, or 204 while they are unknown.
// GET /api/prayer-times
func (h *APIHandlers) PrayerTimes(c *gin.Context) {
	snap, err := h.hub.Snapshot(c.Request.Context(), sessionIDFromContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !snap.HasPrayerTimes() {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, prayerTimesFromTimings(snap.PrayerTimes))
}

// Content lists the static page content.
// GET /api/content
func (h *APIHandlers) Content(c *gin.Context) {
	tabs := make([]TabInfo, 0, len(content.Tabs()))
	for _, t := range content.Tabs() {
		tabs = append(tabs, TabInfo{ID: string(t), Label: t.Label()})
	}
	nights := make([]int, 0, len(content.Nights()))
	for _, n := range content.Nights() {
		nights = append(nights, int(n))
	}

	c.JSON(http.StatusOK, ContentResponse{
		Title:           content.Title,
		Greeting:        content.Greeting,
		Tabs:            tabs,
		Nights:          nights,
		Supplications:   content.Supplications(),
		Reminders:       content.Reminders(),
		Activities:      content.Activities(),
		SuggestedTopics: content.SuggestedTopics(),
		Questions:       qa.Questions(),
	})
}

// Ask answers a question without touching any session.
// POST /api/ask
func (h *APIHandlers) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: core.ErrCodeBadRequest})
		return
	}
	c.JSON(http.StatusOK, AskResponse{Answer: qa.Answer(req.Question)})
}

func (h *APIHandlers) respond(c *gin.Context, status int, fn func(ctx context.Context, sessionID string) (core.Snapshot, error)) {
	snap, err := fn(c.Request.Context(), sessionIDFromContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, stateFromSnapshot(snap))
}

func (h *APIHandlers) writeError(c *gin.Context, err error) {
	var coreErr *core.CoreError
	switch {
	case errors.As(err, &coreErr):
		c.JSON(statusForCode(coreErr.Code), ErrorResponse{Error: coreErr.Message, Code: coreErr.Code})
	case errors.Is(err, core.ErrHubStopped):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service unavailable"})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func statusForCode(code string) int {
	switch code {
	case core.ErrCodeBadRequest:
		return http.StatusBadRequest
	case core.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case core.ErrCodeSessionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
