package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/designneighbor/union-yoga-sanity/internal"
	"github.com/designneighbor/union-yoga-sanity/internal/forms"
	"github.com/designneighbor/union-yoga-sanity/internal/handlers"
	"github.com/designneighbor/union-yoga-sanity/internal/newsletter"
	"github.com/designneighbor/union-yoga-sanity/internal/subscriber"
)

type fakeSubscriptions struct {
	subscribeErr error
	result       *subscriber.Result
	err          error

	gotEmail  string
	gotTags   []string
	gotToken  string
	gotID     subscriber.Identifier
	gotReason string
}

func (f *fakeSubscriptions) Subscribe(_ context.Context, email string, tags []string) (*subscriber.Subscriber, error) {
	f.gotEmail, f.gotTags = email, tags
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	return &subscriber.Subscriber{Email: email, Status: subscriber.StatusPending}, nil
}

func (f *fakeSubscriptions) Confirm(_ context.Context, token, email string) (*subscriber.Result, error) {
	f.gotToken, f.gotEmail = token, email
	return f.result, f.err
}

func (f *fakeSubscriptions) Unsubscribe(_ context.Context, id subscriber.Identifier, reason string) (*subscriber.Result, error) {
	f.gotID, f.gotReason = id, reason
	return f.result, f.err
}

type fakeCampaigns struct {
	send    *newsletter.SendResult
	test    *newsletter.TestResult
	preview string
	err     error

	gotID    string
	gotEmail string
}

func (f *fakeCampaigns) SendCampaign(_ context.Context, id string) (*newsletter.SendResult, error) {
	f.gotID = id
	return f.send, f.err
}

func (f *fakeCampaigns) SendTest(_ context.Context, id, email string) (*newsletter.TestResult, error) {
	f.gotID, f.gotEmail = id, email
	return f.test, f.err
}

func (f *fakeCampaigns) Preview(_ context.Context, id string) (string, error) {
	f.gotID = id
	return f.preview, f.err
}

type fakeDue struct {
	results []newsletter.DueResult
	err     error
	gotNow  time.Time
}

func (f *fakeDue) ProcessDue(_ context.Context, now time.Time) ([]newsletter.DueResult, error) {
	f.gotNow = now
	return f.results, f.err
}

type fakeEvents struct {
	got []newsletter.Event
	err error
}

func (f *fakeEvents) Handle(_ context.Context, e newsletter.Event) error {
	f.got = append(f.got, e)
	return f.err
}

type fakeSubmissions struct {
	receipt *forms.Receipt
	err     error
	csv     string

	gotSub  forms.Submission
	gotMeta forms.Meta
	gotForm string
}

func (f *fakeSubmissions) Submit(_ context.Context, sub forms.Submission, meta forms.Meta) (*forms.Receipt, error) {
	f.gotSub, f.gotMeta = sub, meta
	return f.receipt, f.err
}

func (f *fakeSubmissions) ExportCSV(_ context.Context, formID string, w io.Writer) error {
	f.gotForm = formID
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.csv)
	return err
}

type fakeDrafts struct {
	created   *newsletter.Newsletter
	err       error
	gotParams newsletter.CreateParams
	gotID     string
	gotAt     time.Time
}

func (f *fakeDrafts) Create(_ context.Context, p newsletter.CreateParams) (*newsletter.Newsletter, error) {
	f.gotParams = p
	return f.created, f.err
}

func (f *fakeDrafts) Schedule(_ context.Context, id string, at time.Time) (*newsletter.Newsletter, error) {
	f.gotID, f.gotAt = id, at
	return f.created, f.err
}

// serve runs req through an app wired like the server: the JSON error
// handler plus the given handlers.
func serve(t *testing.T, req *http.Request, hs ...internal.Handler) *httptest.ResponseRecorder {
	t.Helper()

	app := internal.New(
		internal.WithErrorHandler(handlers.ErrorHandler()),
		internal.WithNotFoundHandler(handlers.NotFound),
		internal.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
		internal.WithHandlers(hs...),
	)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
