package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/NiceGuyIT/psa-sub001/internal/apperr"
	"github.com/NiceGuyIT/psa-sub001/internal/auth"
	"github.com/NiceGuyIT/psa-sub001/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withAuth is the mandatory-mode identity builder: a missing, malformed or
// expired bearer credential aborts the pipeline with 401 before any handler
// runs. On success the request identity and raw claims are attached to the
// request scope, immutable for the rest of the request.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			obs.CountAuthFailure(apperr.KindAuthenticationFailed.String())
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.codec.Validate(token)
		if err != nil {
			obs.CountAuthFailure(apperr.KindAuthenticationFailed.String())
			handleError(w, r, err)
			return
		}

		identity := auth.IdentityFromClaims(claims)
		ctx := auth.ContextWithIdentity(r.Context(), identity)
		ctx = auth.ContextWithClaims(ctx, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withOptionalAuth attaches an identity when a valid credential is present
// and otherwise lets the request proceed anonymously. Downstream stages treat
// a missing identity as the public case.
func (a *API) withOptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := a.codec.Validate(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		identity := auth.IdentityFromClaims(claims)
		ctx := auth.ContextWithIdentity(r.Context(), identity)
		ctx = auth.ContextWithClaims(ctx, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
