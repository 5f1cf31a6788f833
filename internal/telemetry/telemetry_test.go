package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.RPCRequests.WithLabelValues("/phobhub.v1.GroupService/Invite", "ok").Inc()
	m.ModificationVotes.WithLabelValues("approved").Add(2)
	m.EventsDelivered.WithLabelValues("group:invitation", "ok").Inc()

	if got := testutil.ToFloat64(m.ModificationVotes.WithLabelValues("approved")); got != 2 {
		t.Errorf("expected 2 approved votes, got %v", got)
	}

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`phobhub_rpc_requests_total{code="ok",procedure="/phobhub.v1.GroupService/Invite"} 1`,
		`phobhub_modification_votes_total{outcome="approved"} 2`,
		`phobhub_events_delivered_total{event="group:invitation",result="ok"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "phobhub-test", "")
	if err != nil {
		t.Fatalf("SetupTracing failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}
