package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/store"
)

// TokenVerifier checks an identity-provider bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// RequireAuth validates the bearer token, upserts the user it names and
// populates AuthContext. Browsers cannot set headers on WebSocket upgrades,
// so an access_token query parameter is accepted too.
func RequireAuth(verifier TokenVerifier, users *store.UserStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			id, err := verifier.Verify(token)
			if err != nil {
				logger.Debug("rejected token", "error", err)
				unauthorized(w)
				return
			}

			u, err := users.Upsert(r.Context(), id.Subject, id.Email, id.Name)
			if err != nil {
				logger.Error("upsert user", "subject", id.Subject, "error", err)
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}

			ac := auth.AuthContext{
				UserID: u.ID,
				Email:  u.Email,
				Name:   u.Name,
			}
			if u.HouseholdID != nil {
				ac.HouseholdID = *u.HouseholdID
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// RequireHousehold rejects users who have not joined a household yet.
func RequireHousehold(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.InHousehold(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error":"You are not in a household"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("access_token")
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"valid authentication required"}`))
}
