package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

type recordedRequest struct {
	method, status string
}

type requestRecorder struct {
	seen []recordedRequest
}

func (r *requestRecorder) ObserveRequest(method, status string, _ float64) {
	r.seen = append(r.seen, recordedRequest{method, status})
}

func TestRequestLoggerTagsRequests(t *testing.T) {
	var buf bytes.Buffer
	obs := &requestRecorder{}
	mw := RequestLogger(logging.NewWithWriter("info", "json", &buf), obs)

	var seenID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusConflict)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/session?pid=p-7", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seenID == "" || rec.Header().Get("X-Request-ID") != seenID {
		t.Fatalf("expected generated request id to be exposed, got %q / %q", seenID, rec.Header().Get("X-Request-ID"))
	}
	logged := buf.String()
	for _, want := range []string{`"status":409`, `"session_id":"p-7"`, `"msg":"request completed"`} {
		if !strings.Contains(logged, want) {
			t.Fatalf("expected %s in log, got %s", want, logged)
		}
	}
	if len(obs.seen) != 1 || obs.seen[0] != (recordedRequest{"POST", "409"}) {
		t.Fatalf("unexpected observations %+v", obs.seen)
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogger(logging.NewWithWriter("info", "json", &buf), nil)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("expected incoming id preserved, got %q", got)
	}
	if !strings.Contains(buf.String(), `"request_id":"req-123"`) {
		t.Fatalf("expected request id in log: %s", buf.String())
	}
}
