package handlers

import (
	"net/http"

	"github.com/designneighbor/union-yoga-sanity/internal"
	"github.com/designneighbor/union-yoga-sanity/internal/forms"
)

// FormHandler accepts website form submissions.
type FormHandler struct {
	submissions Submissions
	clientIP    internal.Extractor
	public      []func(http.Handler) http.Handler
}

func NewFormHandler(submissions Submissions, public ...func(http.Handler) http.Handler) *FormHandler {
	return &FormHandler{
		submissions: submissions,
		clientIP:    internal.NewExtractor(internal.FromForwardedFor(), internal.FromHeader("X-Real-IP")),
		public:      public,
	}
}

func (h *FormHandler) Routes(r internal.Router) {
	r.Group(func(r internal.Router) {
		r.UseHTTP(h.public...)
		r.POST("/api/forms/submit", h.submit)
	})
}

func (h *FormHandler) submit(c internal.Context) error {
	var sub forms.Submission
	verrs, err := bind(c, &sub)
	if err != nil {
		return err
	}
	if len(verrs) > 0 {
		return internal.ErrBadRequest(forms.ErrMissingFields.Error(), internal.WithDetails(verrs.Messages()))
	}

	ip, ok := h.clientIP.Extract(c)
	if !ok {
		ip = "unknown"
	}
	receipt, err := h.submissions.Submit(c, sub, forms.Meta{IP: ip, UserAgent: c.Header("User-Agent")})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Form submitted successfully",
		"emailId": receipt.EmailID,
	})
}
