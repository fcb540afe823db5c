package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry())

	m.EventRecorded(domain.EventTypeEntry, domain.ResultSuccess)
	m.EventRecorded(domain.EventTypeEntry, domain.ResultSuccess)
	m.EventRecorded(domain.EventTypeExit, domain.ResultWarning)
	if got := testutil.ToFloat64(m.eventsRecorded.WithLabelValues("entry", "success")); got != 2 {
		t.Fatalf("expected 2 successful entries, got %v", got)
	}
	if got := testutil.ToFloat64(m.eventsRecorded.WithLabelValues("exit", "warning")); got != 1 {
		t.Fatalf("expected 1 warned exit, got %v", got)
	}

	m.OccupancyObserved(12)
	if got := testutil.ToFloat64(m.occupied); got != 12 {
		t.Fatalf("expected occupied 12, got %v", got)
	}

	m.SubscriptionOpened()
	m.SubscriptionOpened()
	m.SubscriptionClosed()
	if got := testutil.ToFloat64(m.liveSubscribers); got != 1 {
		t.Fatalf("expected 1 subscriber, got %v", got)
	}

	m.CountReset(domain.ResultSuccess)
	m.SnapshotReceived("gate-1")
	m.RequestServed("GET", "/events/stats", 200, 5*time.Millisecond)
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/events/stats", "200")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
}

func TestMetrics_SnapshotZonesAreBounded(t *testing.T) {
	t.Parallel()

	m := NewMetrics(prometheus.NewRegistry(), domain.Zone{ID: "zone-a"}, domain.Zone{ID: "zone-b"})

	m.SnapshotReceived("zone-a")
	m.SnapshotReceived(domain.DefaultZoneID)
	for i := 0; i < 100; i++ {
		m.SnapshotReceived(fmt.Sprintf("gate-%d", i))
	}

	if got := testutil.CollectAndCount(m.snapshotsReceived); got != 3 {
		t.Fatalf("expected 3 snapshot series, got %d", got)
	}
	if got := testutil.ToFloat64(m.snapshotsReceived.WithLabelValues("other")); got != 100 {
		t.Fatalf("expected 100 snapshots counted as other, got %v", got)
	}
	if got := testutil.ToFloat64(m.snapshotsReceived.WithLabelValues("zone-a")); got != 1 {
		t.Fatalf("expected 1 zone-a snapshot, got %v", got)
	}
}

func TestNewMetrics_RegistersOnce(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_ = NewMetrics(reg)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected duplicate registration to panic")
		}
	}()
	_ = NewMetrics(reg)
}

func TestSetupTracing_DisabledWithoutEndpoint(t *testing.T) {
	t.Parallel()

	shutdown, err := SetupTracing(context.Background(), "", "smart-parking-api")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected no-op shutdown, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, "json", "warn")
	logger.Info("dropped")
	logger.Warn("kept", slog.String("driver", "memory"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one json line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "kept" || line["driver"] != "memory" {
		t.Fatalf("unexpected log line: %v", line)
	}

	if parseLevel("nonsense") != slog.LevelInfo {
		t.Fatalf("expected info fallback")
	}
}
