package prometheus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/store/memstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot goIdentity.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goIdentity.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                        { return f.dropped }

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters:   map[goIdentity.MetricID]uint64{},
			Histograms: map[goIdentity.MetricID][]uint64{},
		},
	})

	if n := testutil.CollectAndCount(c); n != 0 {
		t.Fatalf("expected no metrics for a disabled snapshot, got %d", n)
	}
}

func TestCollectCountersAndHistogram(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters: map[goIdentity.MetricID]uint64{
				goIdentity.MetricLoginSuccess:  7,
				goIdentity.MetricSignupSuccess: 2,
			},
			Histograms: map[goIdentity.MetricID][]uint64{
				goIdentity.MetricVerifyAccessLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	want := `
# HELP identity_login_success_total Successful logins.
# TYPE identity_login_success_total counter
identity_login_success_total 7
# HELP identity_audit_dropped_total Audit events dropped due to dispatcher backpressure.
# TYPE identity_audit_dropped_total counter
identity_audit_dropped_total 2
# HELP identity_verify_access_latency_seconds Access token verification latency.
# TYPE identity_verify_access_latency_seconds histogram
identity_verify_access_latency_seconds_bucket{le="0.005"} 1
identity_verify_access_latency_seconds_bucket{le="0.01"} 3
identity_verify_access_latency_seconds_bucket{le="0.025"} 6
identity_verify_access_latency_seconds_bucket{le="0.05"} 10
identity_verify_access_latency_seconds_bucket{le="0.1"} 15
identity_verify_access_latency_seconds_bucket{le="0.25"} 21
identity_verify_access_latency_seconds_bucket{le="0.5"} 28
identity_verify_access_latency_seconds_bucket{le="+Inf"} 36
identity_verify_access_latency_seconds_sum 0
identity_verify_access_latency_seconds_count 36
`
	err := testutil.CollectAndCompare(c, strings.NewReader(want),
		"identity_login_success_total",
		"identity_audit_dropped_total",
		"identity_verify_access_latency_seconds",
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := testutil.CollectAndCount(c, "identity_signup_success_total"); got != 1 {
		t.Fatalf("signup counter series = %d", got)
	}
}

func TestCollectorLints(t *testing.T) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters: map[goIdentity.MetricID]uint64{goIdentity.MetricLoginFailure: 1},
		},
	})
	problems, err := testutil.CollectAndLint(c)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("lint problems: %+v", problems)
	}
}

func TestCollectorRegistersCleanly(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(NewCollectorFromSource(fakeSource{})); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestHandlerServesEngineMetrics(t *testing.T) {
	cfg := goIdentity.DefaultConfig()
	cfg.Token.AccessKey = "prom-access-key-0123456789abcdef0123"
	cfg.Token.RefreshKey = "prom-refresh-key-0123456789abcdef012"
	cfg.Token.Issuer = "prom"
	cfg.Token.Audience = "prom-api"
	cfg.Metrics.Enabled = true

	engine, err := goIdentity.New().WithConfig(cfg).WithStore(memstore.New()).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer engine.Close()
	_, _ = engine.Refresh(context.Background(), "not-a-token")

	h, err := NewCollector(engine).Handler()
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "identity_refresh_failure_total 1") {
		t.Fatalf("refresh failure counter missing from:\n%s", body)
	}
}
