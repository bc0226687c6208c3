package forms_test

import (
	"context"
	"sync"

	"github.com/designneighbor/union-yoga-sanity/internal/forms"
	"github.com/designneighbor/union-yoga-sanity/internal/provider"
)

type recordingProvider struct {
	mu       sync.Mutex
	requests []provider.SendRequest
	result   provider.SendResult
}

func (p *recordingProvider) SendEmail(_ context.Context, req provider.SendRequest) provider.SendResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	return p.result
}

func (p *recordingProvider) AddSubscriber(context.Context, string, []string) error { return nil }

func (p *recordingProvider) RemoveSubscriber(context.Context, string) error { return nil }

func (p *recordingProvider) SubscriberStatus(context.Context, string) (provider.Status, error) {
	return provider.StatusUnknown, nil
}

type memRepo struct {
	mu      sync.Mutex
	records []forms.Record
	saveErr error
}

func (r *memRepo) Save(_ context.Context, rec *forms.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.records = append(r.records, *rec)
	return nil
}

func (r *memRepo) ListByForm(_ context.Context, formID string) ([]forms.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []forms.Record
	for _, rec := range r.records {
		if rec.FormID == formID {
			out = append(out, rec)
		}
	}
	return out, nil
}
