package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func TestLoggingMiddleware_RecordsStatusAndSize(t *testing.T) {
	var buf bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&buf))

	handler := chimiddleware.RequestID(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"entry-1"}`))
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/acc-1/deposits", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	out := buf.String()
	for _, want := range []string{
		`"status":201`,
		`"bytes":16`,
		`"method":"POST"`,
		`"path":"/api/v1/accounts/acc-1/deposits"`,
		`"request_id":"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log line to contain %s, got %s", want, out)
		}
	}
}

func TestLoggingMiddleware_DefaultsStatusToOK(t *testing.T) {
	var buf bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&buf))

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !strings.Contains(buf.String(), `"status":200`) {
		t.Fatalf("expected implicit 200 status, got %s", buf.String())
	}
}
