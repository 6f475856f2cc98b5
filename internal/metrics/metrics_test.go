package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/posts/{slug}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before200 := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200"))
	before404 := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "404"))

	for _, path := range []string{"/posts/hello", "/missing"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200")) - before200; got != 1 {
		t.Errorf("GET 200 delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "404")) - before404; got != 1 {
		t.Errorf("GET 404 delta = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(httpRequestDurationSeconds); n == 0 {
		t.Error("expected request durations to be observed")
	}
}

func TestObserveResolveAttempt(t *testing.T) {
	before := testutil.ToFloat64(resolveAttemptsTotal.WithLabelValues("timeout"))
	ObserveResolveAttempt("timeout")
	if got := testutil.ToFloat64(resolveAttemptsTotal.WithLabelValues("timeout")) - before; got != 1 {
		t.Errorf("timeout delta = %v, want 1", got)
	}
}
