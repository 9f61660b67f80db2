package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/foodwheel/internal/auth"
)

// AdminPasswordHeader carries the admin secret on every admin API call.
const AdminPasswordHeader = "X-Admin-Password"

// RequireAdmin rejects requests whose X-Admin-Password header does not match
// the admin secret. When allowQuery is set, a "password" query parameter is
// accepted as well, for clients such as browser WebSockets that cannot set
// headers.
func RequireAdmin(v *auth.Verifier, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			password := r.Header.Get(AdminPasswordHeader)
			if password == "" && allowQuery {
				password = r.URL.Query().Get("password")
			}
			if !v.Check(password) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAdmin(r.Context())))
		})
	}
}
