package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/designneighbor/union-yoga-sanity/internal"
	"github.com/designneighbor/union-yoga-sanity/internal/forms"
	"github.com/designneighbor/union-yoga-sanity/internal/newsletter"
	"github.com/designneighbor/union-yoga-sanity/internal/provider"
	"github.com/designneighbor/union-yoga-sanity/internal/subscriber"
	"github.com/designneighbor/union-yoga-sanity/middlewares"
)

const msgInternal = "Internal server error"

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type mapping struct {
	target  error
	code    int
	message string
}

// mappings are checked in order; the first match wins.
var mappings = []mapping{
	{subscriber.ErrInvalidEmail, http.StatusBadRequest, "Invalid email address format"},
	{subscriber.ErrMissingToken, http.StatusBadRequest, "Token is required"},
	{subscriber.ErrMissingIdentifier, http.StatusBadRequest, "Token or email is required"},
	{subscriber.ErrNotFound, http.StatusNotFound, "Subscriber not found"},
	{subscriber.ErrAlreadySubscribed, http.StatusBadRequest, "Email is already subscribed"},
	{subscriber.ErrConfirmationNotSent, http.StatusInternalServerError, "Failed to send confirmation email"},

	{newsletter.ErrMissingID, http.StatusBadRequest, "Newsletter ID is required"},
	{newsletter.ErrMissingTestEmail, http.StatusBadRequest, "Test email address is required"},
	{newsletter.ErrInvalidEmail, http.StatusBadRequest, "Invalid email address format"},
	{newsletter.ErrMissingTitle, http.StatusBadRequest, "Title is required"},
	{newsletter.ErrNotFound, http.StatusNotFound, "Newsletter not found"},
	{newsletter.ErrEmptyContent, http.StatusBadRequest, "Newsletter has no content blocks"},
	{newsletter.ErrAlreadySent, http.StatusBadRequest, "Newsletter has already been sent"},
	{newsletter.ErrNoSubscribers, http.StatusBadRequest, "No active subscribers found"},
	{newsletter.ErrInvalidTransition, http.StatusBadRequest, "Newsletter cannot be scheduled in its current status"},
	{newsletter.ErrInvalidSchedule, http.StatusBadRequest, "Scheduled send time must be in the future"},
	{newsletter.ErrSendFailed, http.StatusInternalServerError, "Failed to send test email"},

	{provider.ErrMisconfigured, http.StatusInternalServerError, "Email service not configured"},
	{provider.ErrUnknownPlatform, http.StatusBadRequest, "Unknown email platform"},
	{provider.ErrNotImplemented, http.StatusInternalServerError, "Email platform is not supported yet"},

	{forms.ErrMisconfigured, http.StatusInternalServerError, forms.ErrMisconfigured.Error()},
	{forms.ErrMissingFields, http.StatusBadRequest, forms.ErrMissingFields.Error()},
	{forms.ErrRecipientRejected, http.StatusUnprocessableEntity, forms.ErrRecipientRejected.Error()},
	{forms.ErrSendFailed, http.StatusInternalServerError, forms.ErrSendFailed.Error()},
	{forms.ErrNotFound, http.StatusNotFound, "No submissions found"},

	{context.DeadlineExceeded, http.StatusGatewayTimeout, "Request timed out"},
}

// toHTTPError maps a domain error onto the client-facing taxonomy. Unknown
// errors become a generic 500 that leaks nothing.
func toHTTPError(err error) *internal.HTTPError {
	if httpErr := internal.AsHTTPError(err); httpErr != nil {
		return httpErr
	}

	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		return internal.ErrBadRequest(forms.ErrValidation.Error(), internal.WithDetails(verr.Messages), internal.WithError(err))
	}
	var rerr *forms.RecipientError
	if errors.As(err, &rerr) {
		return internal.ErrBadRequest(forms.ErrInvalidRecipient.Error(), internal.WithError(err), internal.WithDetails(map[string]string{
			"original":  rerr.Original,
			"sanitized": rerr.Sanitized,
			"message":   "Email must contain only letters, numbers, dots, hyphens, underscores, and @ symbol",
		}))
	}

	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return internal.NewHTTPError(m.code, m.message, internal.WithError(err))
		}
	}
	return internal.ErrInternal(msgInternal, internal.WithError(err))
}

// ErrorHandler renders every error returned by API handlers as
// {"error": ..., "details": ...}. Server errors are logged with the cause.
func ErrorHandler() internal.ErrorHandler {
	return func(c internal.Context, err error) error {
		httpErr := toHTTPError(err)
		if httpErr.Code >= http.StatusInternalServerError {
			attrs := []any{slog.Int("status", httpErr.Code), slog.Any("error", err)}
			if pe, ok := middlewares.AsPanicError(err); ok {
				attrs = append(attrs, slog.Any("panic", pe.Value))
			}
			c.LogError("request failed", attrs...)
		} else {
			c.LogDebug("request rejected", slog.Int("status", httpErr.Code), slog.String("error", httpErr.Message))
		}

		body := errorBody{Error: httpErr.Message, Details: httpErr.Details}
		if body.Details == nil && httpErr.Detail != "" {
			body.Details = httpErr.Detail
		}
		return c.JSON(httpErr.Code, body)
	}
}

// NotFound answers unknown routes in the API error shape.
func NotFound(c internal.Context) error {
	return c.JSON(http.StatusNotFound, errorBody{Error: "Not found"})
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(c internal.Context) error {
	return c.JSON(http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
}
