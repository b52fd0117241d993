// internal/app/features/dashboard/stream.go
package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/httpjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// keepAlive is how often an idle stream sends a comment line so proxies
// do not close it.
var keepAlive = 20 * time.Second

// ServeStream handles GET /dashboard/stream as Server-Sent Events.
// The first event is the current state; subscribing then triggers a load
// so the client sees loading followed by its completion. Every later
// publication follows until the client disconnects.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpjson.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	agg, ok := h.aggregator(w, r)
	if !ok {
		return
	}

	streamID := uuid.NewString()
	log := h.Log.With(zap.String("stream", streamID))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Stream-ID", streamID)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	states := agg.Subscribe(ctx)
	agg.Load()
	log.Debug("dashboard stream opened")

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	seq := 0
	for {
		select {
		case <-ctx.Done():
			log.Debug("dashboard stream closed by client")
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case s, open := <-states:
			if !open {
				log.Debug("dashboard stream closed by server")
				return
			}
			data, err := json.Marshal(s)
			if err != nil {
				log.Error("dashboard stream: encode state", zap.Error(err))
				return
			}
			seq++
			if _, err := fmt.Fprintf(w, "id: %d\nevent: state\ndata: %s\n\n", seq, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
