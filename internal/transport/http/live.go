package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/live"
)

const liveWriteTimeout = 5 * time.Second

// LiveSubscriber is the minimal interface needed by the live stream endpoint.
type LiveSubscriber interface {
	Subscribe(ctx context.Context) *live.Subscription
}

type zoneStateResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Occupied int    `json:"occupied"`
	Free     int    `json:"free"`
}

type liveStateResponse struct {
	TotalCapacity   int                 `json:"totalCapacity"`
	CurrentOccupied int                 `json:"currentOccupied"`
	AvailableSlots  int                 `json:"availableSlots"`
	LastUpdated     *time.Time          `json:"lastUpdated,omitempty"`
	Zones           []zoneStateResponse `json:"zones"`
	Loading         bool                `json:"loading"`
	Error           string              `json:"error,omitempty"`
}

func newLiveStateResponse(st live.State) liveStateResponse {
	resp := liveStateResponse{
		TotalCapacity:   st.TotalCapacity,
		CurrentOccupied: st.CurrentOccupied,
		AvailableSlots:  st.AvailableSlots,
		Zones:           make([]zoneStateResponse, 0, len(st.Zones)),
		Loading:         st.Loading,
		Error:           st.Err,
	}
	if !st.LastUpdated.IsZero() {
		lastUpdated := st.LastUpdated
		resp.LastUpdated = &lastUpdated
	}
	for _, z := range st.Zones {
		resp.Zones = append(resp.Zones, zoneStateResponse{
			ID:       z.Zone.ID,
			Name:     z.Zone.Name,
			Capacity: z.Zone.Capacity,
			Occupied: z.Occupied,
			Free:     z.Free,
		})
	}
	return resp
}

// HandleLive upgrades to a websocket and pushes a JSON state for every change
// of the live count. The subscription is closed when the client goes away.
func HandleLive(svc LiveSubscriber, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Debug("websocket upgrade failed", slog.Any("error", err))
			return
		}
		defer conn.CloseNow()

		// Client messages are ignored; ctx ends when the client disconnects.
		ctx := conn.CloseRead(r.Context())

		sub := svc.Subscribe(ctx)
		defer sub.Close()

		if err := writeState(ctx, conn, sub.Current()); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case st, ok := <-sub.States():
				if !ok {
					_ = conn.Close(websocket.StatusNormalClosure, "subscription ended")
					return
				}
				if err := writeState(ctx, conn, st); err != nil {
					logger.Debug("websocket write failed", slog.Any("error", err))
					return
				}
			}
		}
	}
}

func writeState(ctx context.Context, conn *websocket.Conn, st live.State) error {
	ctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, newLiveStateResponse(st))
}
