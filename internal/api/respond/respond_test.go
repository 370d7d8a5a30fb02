package respond

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

const generic500 = `{"success":false,"msg":"Error interno del servidor"}`

func TestHandler_ErrorBecomesGeneric500(t *testing.T) {
	h := Handler(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("connection refused: secret-host:5432")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, generic500, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secret-host")
}

func TestHandler_NoErrorLeavesResponse(t *testing.T) {
	h := Handler(func(w http.ResponseWriter, r *http.Request) error {
		JSON(w, http.StatusCreated, map[string]bool{"success": true})
		return nil
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestRecoverer(t *testing.T) {
	for name, value := range map[string]interface{}{
		"string panic": "boom",
		"error panic":  errors.New("boom"),
	} {
		t.Run(name, func(t *testing.T) {
			h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(value)
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, generic500, rec.Body.String())
		})
	}
}

func TestInternalError_AfterHeadersSent(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := middleware.NewWrapResponseWriter(rec, 1)
	ww.WriteHeader(http.StatusOK)
	ww.Write([]byte("partial"))

	InternalError(ww, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("late"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}

func TestFail(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, http.StatusBadRequest, "bad")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"msg":"bad"}`, rec.Body.String())
}
