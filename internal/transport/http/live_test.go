package http

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/goleak"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/clock"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/live"
	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/storage/memory"
)

type unavailableWatcher struct{}

func (unavailableWatcher) WatchSummary(context.Context) (live.SummaryStream, error) {
	return nil, domain.ErrStoreUnavailable
}

func dialLive(t *testing.T, ctx context.Context, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

// readUntil reads states until match returns true.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(liveStateResponse) bool) liveStateResponse {
	t.Helper()
	for {
		var st liveStateResponse
		if err := wsjson.Read(ctx, conn, &st); err != nil {
			t.Fatalf("read state: %v", err)
		}
		if match(st) {
			return st
		}
	}
}

func TestHandleLive_StreamsCountChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := memory.New()
	now := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	sub := live.NewSubscriber(store, 30, testZones, clock.NewFixed(now), live.WithLogger(discardLogger()))

	srv := httptest.NewServer(HandleLive(sub, nil, discardLogger()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialLive(t, ctx, srv)
	defer conn.CloseNow()

	st := readUntil(t, ctx, conn, func(st liveStateResponse) bool { return !st.Loading })
	if st.TotalCapacity != 30 || st.CurrentOccupied != 0 || st.AvailableSlots != 30 || st.Error != "" {
		t.Fatalf("expected empty-lot defaults, got %+v", st)
	}
	if len(st.Zones) != 3 {
		t.Fatalf("expected 3 zones, got %d", len(st.Zones))
	}

	for i := 0; i < 12; i++ {
		if err := store.IncrementOccupied(ctx, now); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	st = readUntil(t, ctx, conn, func(st liveStateResponse) bool { return st.CurrentOccupied == 12 })
	if st.AvailableSlots != 18 || st.Zones[0].Free != 0 || st.Zones[1].Occupied != 2 {
		t.Fatalf("unexpected state %+v", st)
	}

	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestHandleLive_ReportsUnavailableStore(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sub := live.NewSubscriber(unavailableWatcher{}, 30, testZones, clock.NewSystem(), live.WithLogger(discardLogger()))
	srv := httptest.NewServer(HandleLive(sub, nil, discardLogger()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialLive(t, ctx, srv)
	defer conn.CloseNow()

	st := readUntil(t, ctx, conn, func(st liveStateResponse) bool { return !st.Loading })
	if st.Error != "store not connected" {
		t.Fatalf("expected store error, got %+v", st)
	}

	// The error state may be delivered twice; after it the server closes.
	for {
		var next liveStateResponse
		err := wsjson.Read(ctx, conn, &next)
		if err == nil {
			if next.Error != "store not connected" {
				t.Fatalf("unexpected state after failure %+v", next)
			}
			continue
		}
		if errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("server did not close the stream")
		}
		if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
			t.Fatalf("expected normal closure after failed subscription, got %v", err)
		}
		return
	}
}

func TestNewLiveStateResponse(t *testing.T) {
	t.Parallel()

	resp := newLiveStateResponse(live.State{Loading: true})
	if !resp.Loading || resp.LastUpdated != nil || resp.Zones == nil {
		t.Fatalf("unexpected loading response %+v", resp)
	}
}
