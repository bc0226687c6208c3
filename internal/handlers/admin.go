package handlers

import (
	"bytes"
	"mime"
	"net/http"
	"time"

	"github.com/designneighbor/union-yoga-sanity/internal"
	"github.com/designneighbor/union-yoga-sanity/internal/content"
	"github.com/designneighbor/union-yoga-sanity/internal/newsletter"
	"github.com/designneighbor/union-yoga-sanity/internal/provider"
	"github.com/designneighbor/union-yoga-sanity/middlewares"
	"github.com/designneighbor/union-yoga-sanity/pkg/slug"
)

// AdminHandler serves the operator endpoints. Every route requires
// "Authorization: Bearer <token>"; with no token configured the routes
// answer 404.
type AdminHandler struct {
	drafts      Drafts
	submissions Submissions
	token       string
}

func NewAdminHandler(drafts Drafts, submissions Submissions, token string) *AdminHandler {
	return &AdminHandler{drafts: drafts, submissions: submissions, token: token}
}

func (h *AdminHandler) Routes(r internal.Router) {
	r.Route("/api/admin", func(r internal.Router) {
		r.Use(middlewares.RequireSecret(h.token, middlewares.WithRealm("admin")))
		r.POST("/newsletters", h.createNewsletter)
		r.POST("/newsletters/{id}/schedule", h.scheduleNewsletter)
		r.GET("/forms/{formId}/submissions.csv", h.exportSubmissions)
	})
}

type createNewsletterRequest struct {
	Title    string            `json:"title" validate:"required"`
	Content  content.Blocks    `json:"content"`
	Platform provider.Platform `json:"platform"`
}

func (h *AdminHandler) createNewsletter(c internal.Context) error {
	var req createNewsletterRequest
	verrs, err := bind(c, &req)
	if err != nil {
		return err
	}
	if len(verrs) > 0 {
		return internal.ErrBadRequest("Validation failed", internal.WithDetails(verrs.Messages()))
	}

	n, err := h.drafts.Create(c, newsletter.CreateParams{
		Title:    req.Title,
		Content:  req.Content,
		Platform: req.Platform,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, n)
}

type scheduleRequest struct {
	ScheduledSendTime time.Time `json:"scheduledSendTime" validate:"required"`
}

func (h *AdminHandler) scheduleNewsletter(c internal.Context) error {
	var req scheduleRequest
	verrs, err := bind(c, &req)
	if err != nil {
		return err
	}
	if len(verrs) > 0 {
		return internal.ErrBadRequest("Validation failed", internal.WithDetails(verrs.Messages()))
	}

	n, err := h.drafts.Schedule(c, c.Param("id"), req.ScheduledSendTime)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

func (h *AdminHandler) exportSubmissions(c internal.Context) error {
	formID := c.Param("formId")

	var buf bytes.Buffer
	if err := h.submissions.ExportCSV(c, formID, &buf); err != nil {
		return err
	}

	name := slug.Make(formID, slug.MaxLength(64))
	if name == "" {
		name = "form"
	}
	c.SetHeader("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": name + "-submissions.csv",
	}))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
