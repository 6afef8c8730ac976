package handlers

import (
	"net/http"
	"strings"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// RealtimeHandlers upgrades panel connections onto the update hub
type RealtimeHandlers struct {
	hub      *messaging.Hub
	upgrader websocket.Upgrader
	logger   *logging.ChanneledLogger
}

// NewRealtimeHandlers creates realtime handlers accepting the given origins.
// A "*" entry allows any origin.
func NewRealtimeHandlers(hub *messaging.Hub, origins []string, logger *logging.ChanneledLogger) *RealtimeHandlers {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	return &RealtimeHandlers{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// GetStream handles GET /plugin/wireviz/ws/:part - part 0 receives every update
func (h *RealtimeHandlers) GetStream(c *gin.Context) {
	partID, ok := streamPart(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Realtime().Debug("Websocket upgrade failed", "partId", partID, "error", err.Error())
		return
	}
	h.hub.Serve(conn, partID)
}

func streamPart(c *gin.Context) (int64, bool) {
	if c.Param("part") == "0" {
		return 0, true
	}
	return partParam(c, "part")
}
