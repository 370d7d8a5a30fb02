// Package request holds the per-request parsing stages (cookies, body) and
// the accessors downstream handlers use to read their results.
package request

import (
	"context"
	"net/http"
)

type contextKey string

const (
	cookiesKey = contextKey("cookies")
	bodyKey    = contextKey("body")
)

// Cookies parses the Cookie header into a name to value map stored on the
// request context. When a name repeats, the first value wins.
func Cookies(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parsed := r.Cookies()
		jar := make(map[string]string, len(parsed))
		for _, c := range parsed {
			if _, seen := jar[c.Name]; !seen {
				jar[c.Name] = c.Value
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), cookiesKey, jar)))
	})
}

// CookieMap returns the cookies parsed by Cookies, or nil if that stage did not run.
func CookieMap(r *http.Request) map[string]string {
	jar, _ := r.Context().Value(cookiesKey).(map[string]string)
	return jar
}

// Cookie returns a single parsed cookie value.
func Cookie(r *http.Request, name string) (string, bool) {
	v, ok := CookieMap(r)[name]
	return v, ok
}
