package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultBodyLimit matches the usual 100kb limit of web body parsers.
const DefaultBodyLimit int64 = 100 << 10

// ErrorResponder answers a request that failed inside a middleware.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// Body parses JSON and URL-encoded request bodies into a field map stored on
// the request context. Other content types get an empty map. A body that
// cannot be parsed is handed to onError and the chain stops there.
func Body(limit int64, onError ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fields, err := parseBody(w, r, limit)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), bodyKey, fields)))
		})
	}
}

func parseBody(w http.ResponseWriter, r *http.Request, limit int64) (map[string]any, error) {
	fields := map[string]any{}
	if r.Body == nil || r.Body == http.NoBody {
		return fields, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
		if err != nil {
			return nil, fmt.Errorf("read json body: %w", err)
		}
		// Let handlers read the body again if they need the raw bytes.
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if len(bytes.TrimSpace(raw)) == 0 {
			return fields, nil
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("parse json body: %w", err)
		}
		if fields == nil {
			return nil, errors.New("parse json body: body must be a JSON object")
		}
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form body: %w", err)
		}
		for k, vs := range r.PostForm {
			if len(vs) == 1 {
				fields[k] = vs[0]
			} else {
				fields[k] = vs
			}
		}
	}
	return fields, nil
}

// BodyMap returns the fields parsed by Body, or nil if that stage did not run.
func BodyMap(r *http.Request) map[string]any {
	fields, _ := r.Context().Value(bodyKey).(map[string]any)
	return fields
}

// Bind copies the parsed body into dst, a pointer to a struct with json tags.
func Bind(r *http.Request, dst any) error {
	fields := BodyMap(r)
	if fields == nil {
		return errors.New("request body was not parsed")
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
