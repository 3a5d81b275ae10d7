package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/Sternrassler/artic-table/pkg/cache"
	_ "github.com/Sternrassler/artic-table/pkg/client"
	_ "github.com/Sternrassler/artic-table/pkg/table"
)

func TestRegistry(t *testing.T) {
	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
	if Gatherer != prometheus.DefaultGatherer {
		t.Error("Gatherer should be the default Prometheus gatherer")
	}
}

func TestNames_Prefix(t *testing.T) {
	seen := map[string]bool{}
	for _, name := range Names {
		if !strings.HasPrefix(name, "artic_") {
			t.Errorf("metric %q lacks the artic_ prefix", name)
		}
		if seen[name] {
			t.Errorf("metric %q listed twice", name)
		}
		seen[name] = true
	}
}

func TestHandler_ExposesUnlabelledMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)

	// Vec metrics only appear once a label set is used.
	for _, name := range []string{
		"artic_cache_misses_total",
		"artic_cache_stored_bytes_total",
		"artic_304_responses_total",
		"artic_conditional_requests_total",
		"artic_selection_size",
		"artic_record_cache_size",
		"artic_bulk_pages_fetched",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestHandler_CountsScrapes(t *testing.T) {
	h := Handler()
	for range 2 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/metrics", nil))
	}

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`promhttp_metric_handler_requests_total{code="200"}`,
		"promhttp_metric_handler_requests_in_flight",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
