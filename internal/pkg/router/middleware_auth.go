package router

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
)

// HeaderBotKey carries the shared key of the trusted chat-bot front end.
const HeaderBotKey = "X-Bot-Key"

// Authenticator resolves an Authorization header into session claims.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (jwt.Claims, error)
}

// Authentication rejects requests whose Authorization header does not
// resolve to a live session. The claims are stored with jwt.SetAuth.
func Authentication(authn Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authn.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				writeError(r.Context(), w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}

// APIKey admits only requests whose header equals key. An empty key admits
// nothing.
func APIKey(header, key string) Middleware {
	want := []byte(key)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(header))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				writeError(r.Context(), w, goerror.NewBusiness("invalid api key", goerror.CodeUnauthorized))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
