package provider

import (
	"fmt"

	"github.com/designneighbor/union-yoga-sanity/pkg/mailer"
)

// Deps are the clients a Registry builds providers from.
type Deps struct {
	// Resend is nil when no API key is configured.
	Resend mailer.Sender
	// Wrap, when set, decorates each configured provider (e.g. with a Breaker).
	Wrap func(Platform, Provider) Provider
}

// Registry holds one provider per platform, built once at startup.
type Registry struct {
	providers map[Platform]Provider
}

// NewRegistry builds every platform that can be built from deps.
func NewRegistry(deps Deps) *Registry {
	wrap := deps.Wrap
	if wrap == nil {
		wrap = func(_ Platform, p Provider) Provider { return p }
	}

	r := &Registry{providers: map[Platform]Provider{
		PlatformMailchimp: NewMailchimp(),
		PlatformKit:       NewKit(),
	}}
	if deps.Resend != nil {
		r.providers[PlatformResend] = wrap(PlatformResend, NewResend(deps.Resend))
	}
	return r
}

// For returns the provider for platform. An empty platform means resend.
func (r *Registry) For(platform Platform) (Provider, error) {
	if platform == "" {
		platform = PlatformResend
	}
	p, ok := r.providers[platform]
	if ok {
		return p, nil
	}
	switch platform {
	case PlatformResend:
		return nil, fmt.Errorf("%w: RESEND_API_KEY is not set", ErrMisconfigured)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}
}
