package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/larder/internal/auth"
)

// HandleWebSocket upgrades authenticated requests and subscribes the
// connection to its household's change feed. Users without a household get
// 409.
func HandleWebSocket(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		householdID := auth.HouseholdID(r.Context())
		if householdID == 0 {
			http.Error(w, `{"error":"You are not in a household"}`, http.StatusConflict)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			hub.logger.Warn("accept", "error", err)
			return
		}

		hub.logger.Debug("client connected", "household_id", householdID, "user_id", auth.UserID(r.Context()))
		NewClient(hub, conn, householdID).Run(r.Context())
	}
}
