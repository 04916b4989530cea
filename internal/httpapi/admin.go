package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// pendingTurnView is the admin projection of one in-flight turn.
type pendingTurnView struct {
	Fragments        []string `json:"fragments"`
	FragmentCount    int      `json:"fragment_count"`
	SecondsSinceLast float64  `json:"seconds_since_last_fragment"`
}

// handleBatcherStatus dumps all pending turns.
func (s *Server) handleBatcherStatus(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.scheduler.Snapshot()
	now := time.Now()

	turns := make(map[string]pendingTurnView, len(snapshot))
	for key, st := range snapshot {
		turns[key] = pendingTurnView{
			Fragments:        st.Fragments,
			FragmentCount:    len(st.Fragments),
			SecondsSinceLast: now.Sub(st.LastUpdate).Seconds(),
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending_count": len(turns),
		"turns":         turns,
	})
}

// handleBatcherFlush forces a pending turn to dispatch immediately.
func (s *Server) handleBatcherFlush(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}

	if !s.scheduler.ForceFlush(req.Key) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no pending turn for key"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "flushed", "key": req.Key})
}
