// Package respond writes the JSON envelopes shared by every route and holds
// the terminal error responder.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// InternalErrorMessage is the only detail clients ever see for an uncaught error.
const InternalErrorMessage = "Error interno del servidor"

// Envelope is the response shape used across the API.
type Envelope struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg,omitempty"`
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

// Fail writes {"success":false,"msg":msg}.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Success: false, Msg: msg})
}

// InternalError is the terminal stage for uncaught errors: it logs the error
// with a stack trace and answers with the generic 500 body.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	logStack(r, err, debug.Stack())
	write500(w)
}

// Handler is an http.HandlerFunc that may fail. A returned error is passed
// to InternalError.
type Handler func(w http.ResponseWriter, r *http.Request) error

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(w, r); err != nil {
		InternalError(w, r, err)
	}
}

// Recoverer turns panics below it into the same 500 answer as returned errors.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				// The server aborts the response on purpose; let it.
				panic(rvr)
			}
			err, ok := rvr.(error)
			if !ok {
				err = &panicError{value: rvr}
			}
			logStack(r, err, debug.Stack())
			write500(w)
		}()
		next.ServeHTTP(w, r)
	})
}

func logStack(r *http.Request, err error, stack []byte) {
	log.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("stack", string(stack)).
		Msg("Unhandled request error")
}

func write500(w http.ResponseWriter) {
	// Once the status line went out there is nothing left to answer with.
	if ww, ok := w.(middleware.WrapResponseWriter); ok && ww.Status() != 0 {
		return
	}
	Fail(w, http.StatusInternalServerError, InternalErrorMessage)
}

type panicError struct {
	value interface{}
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}
