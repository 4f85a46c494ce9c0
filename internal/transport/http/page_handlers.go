package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ramadan-assistant/internal/content"
	"github.com/vovakirdan/ramadan-assistant/internal/core"
	"github.com/vovakirdan/ramadan-assistant/internal/prayer"
)

const pageTemplate = "index.html"

// PageHandlers render the HTML page and accept its form posts.
type PageHandlers struct {
	hub    *core.Hub
	tokens *sessionTokens
	city   string
	log    *zerolog.Logger
}

// NewPageHandlers creates page handlers. city labels the prayer-times grid.
func NewPageHandlers(hub *core.Hub, tokens *sessionTokens, city string, logger *zerolog.Logger) *PageHandlers {
	return &PageHandlers{hub: hub, tokens: tokens, city: city, log: logger}
}

type pageData struct {
	Title           string
	ArabicTitle     string
	City            string
	Night           content.Night
	Nights          []nightOption
	Tabs            []tabOption
	Panel           string
	Prayers         []prayer.Prayer
	Supplications   []content.Supplication
	Reminders       []string
	Activities      []string
	SuggestedTopics []string
	Messages        []core.Message
	Draft           string
}

type nightOption struct {
	Value  content.Night
	Active bool
}

type tabOption struct {
	Value  content.Tab
	Label  string
	Active bool
}

// Index renders the page for the caller's session, opening one on first visit.
// GET /
func (h *PageHandlers) Index(c *gin.Context) {
	ctx := c.Request.Context()

	snap, err := h.currentSnapshot(ctx, c.Request)
	if errors.Is(err, errNoToken) || errors.Is(err, core.ErrSessionNotFound) || isTokenError(err) {
		snap, err = h.openSession(c)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.HTML(http.StatusOK, pageTemplate, h.buildPage(snap))
}

// SelectTab handles the tab buttons.
// POST /tab
func (h *PageHandlers) SelectTab(c *gin.Context) {
	tab, err := content.ParseTab(c.PostForm("tab"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	h.mutate(c, func(ctx context.Context, id string) error {
		_, err := h.hub.SelectTab(ctx, id, tab)
		return err
	})
}

// SelectNight handles the night buttons.
// POST /night
func (h *PageHandlers) SelectNight(c *gin.Context) {
	night, err := content.ParseNight(c.PostForm("night"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	h.mutate(c, func(ctx context.Context, id string) error {
		_, err := h.hub.SelectNight(ctx, id, night)
		return err
	})
}

// SubmitMessage handles the chat form.
// POST /chat
func (h *PageHandlers) SubmitMessage(c *gin.Context) {
	text := c.PostForm("message")
	h.mutate(c, func(ctx context.Context, id string) error {
		_, err := h.hub.SubmitMessage(ctx, id, text)
		return err
	})
}

// mutate applies fn to the caller's session and redirects back to the page.
// Callers without a live session are sent to the page, which opens a new one.
func (h *PageHandlers) mutate(c *gin.Context, fn func(ctx context.Context, sessionID string) error) {
	sessionID, err := h.tokens.resolve(c.Request)
	if err == nil {
		err = fn(c.Request.Context(), sessionID)
	}
	if err != nil && !errors.Is(err, errNoToken) && !errors.Is(err, core.ErrSessionNotFound) && !isTokenError(err) {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *PageHandlers) currentSnapshot(ctx context.Context, r *http.Request) (core.Snapshot, error) {
	sessionID, err := h.tokens.resolve(r)
	if err != nil {
		return core.Snapshot{}, err
	}
	return h.hub.Snapshot(ctx, sessionID)
}

func (h *PageHandlers) openSession(c *gin.Context) (core.Snapshot, error) {
	snap, err := h.hub.OpenSession(c.Request.Context())
	if err != nil {
		return core.Snapshot{}, err
	}
	token, err := h.tokens.issue(snap.ID)
	if err != nil {
		return core.Snapshot{}, err
	}
	h.tokens.setCookie(c.Writer, token, c.Request.TLS != nil)
	return snap, nil
}

func (h *PageHandlers) buildPage(snap core.Snapshot) pageData {
	nights := make([]nightOption, 0, len(content.Nights()))
	for _, n := range content.Nights() {
		nights = append(nights, nightOption{Value: n, Active: n == snap.Night})
	}
	tabs := make([]tabOption, 0, len(content.Tabs()))
	for _, t := range content.Tabs() {
		tabs = append(tabs, tabOption{Value: t, Label: t.Label(), Active: t == snap.Tab})
	}

	data := pageData{
		Title:       content.Title,
		ArabicTitle: content.ArabicTitle,
		City:        h.city,
		Night:       snap.Night,
		Nights:      nights,
		Tabs:        tabs,
		Panel:       string(snap.Tab),
		Prayers:     snap.PrayerTimes.Ordered(),
	}

	switch snap.Tab {
	case content.TabDuaas:
		data.Supplications = content.Supplications()
	case content.TabReminders:
		data.Reminders = content.Reminders()
	case content.TabActivities:
		data.Activities = content.Activities()
	case content.TabChat:
		data.Messages = snap.Messages
		data.Draft = snap.Draft
		data.SuggestedTopics = content.SuggestedTopics()
	}
	return data
}

func (h *PageHandlers) writeError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrHubStopped) {
		c.String(http.StatusServiceUnavailable, "service unavailable")
		return
	}
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("page request failed")
	c.String(http.StatusInternalServerError, "internal server error")
}
