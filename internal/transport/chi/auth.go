package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerScheme = "bearer"

// BearerAuthMiddleware guards the record API with static API keys sent as
// "Authorization: Bearer <key>". Requests for the open paths pass untouched.
// With no non-empty key configured, authentication is off.
func BearerAuthMiddleware(apiKeys []string, open ...string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	openPaths := make(map[string]struct{}, len(open))
	for _, p := range open {
		openPaths[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := openPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "missing authorization header")
				return
			}
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, bearerScheme) {
				unauthorized(w, "authorization header must use Bearer scheme")
				return
			}
			if !knownKey(keys, []byte(strings.TrimSpace(token))) {
				unauthorized(w, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// knownKey compares against every key in constant time.
func knownKey(keys [][]byte, token []byte) bool {
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, token)
	}
	return found == 1
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="fuzzysuggest"`)
	writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, msg)
}
