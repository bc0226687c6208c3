package middlewares

import (
	"crypto/subtle"

	"github.com/designneighbor/union-yoga-sanity/internal"
)

type secretConfig struct {
	openWhenUnset bool
	realm         string
}

// SecretOption configures RequireSecret.
type SecretOption func(*secretConfig)

// WithOpenWhenUnset lets every request through when no secret is
// configured. Without it an unset secret hides the routes behind a 404.
func WithOpenWhenUnset() SecretOption {
	return func(cfg *secretConfig) {
		cfg.openWhenUnset = true
	}
}

// WithRealm names the protected area in the 401 challenge.
func WithRealm(realm string) SecretOption {
	return func(cfg *secretConfig) {
		cfg.realm = realm
	}
}

// RequireSecret accepts a request only when it carries
// "Authorization: Bearer <secret>".
func RequireSecret(secret string, opts ...SecretOption) internal.Middleware {
	cfg := &secretConfig{realm: "api"}
	for _, opt := range opts {
		opt(cfg)
	}
	bearer := internal.NewExtractor(internal.FromBearerToken())

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if secret == "" {
				if cfg.openWhenUnset {
					return next(c)
				}
				return internal.ErrNotFound("Not found")
			}

			got, _ := bearer.Extract(c)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				c.SetHeader("WWW-Authenticate", `Bearer realm="`+cfg.realm+`"`)
				return internal.ErrUnauthorized("Unauthorized")
			}
			return next(c)
		}
	}
}
