package feed

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"trainerdesk/internal/pkg/jwt"
	"trainerdesk/internal/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type WSHandler struct {
	hub        *Hub
	jwtService *jwt.Service
}

func NewWSHandler(hub *Hub, jwtService *jwt.Service) *WSHandler {
	return &WSHandler{hub: hub, jwtService: jwtService}
}

func (h *WSHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws/schedule", h.HandleWebSocket)
}

// HandleWebSocket handles GET /ws/schedule?token=JWT
//
// Browsers cannot set headers on websocket upgrades, so the token comes in the query.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "token query parameter is required")
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid subject")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("feed_upgrade_failed user_id=%s error=%v", userID, err)
		return
	}

	h.hub.Register(userID, conn)
	log.Printf("feed_connected user_id=%s online=%d", userID, h.hub.OnlineCount())

	defer func() {
		h.hub.Unregister(userID, conn)
		log.Printf("feed_disconnected user_id=%s", userID)
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(userID, done)

	h.readLoop(conn, userID)
}

func (h *WSHandler) pingLoop(userID uuid.UUID, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c := h.hub.get(userID)
			if c == nil {
				return
			}
			if err := c.write(func(conn *websocket.Conn) error {
				return conn.WriteMessage(websocket.PingMessage, nil)
			}); err != nil {
				return
			}
		}
	}
}

// readLoop only drains control frames; the feed is server to client.
func (h *WSHandler) readLoop(conn *websocket.Conn, userID uuid.UUID) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("feed_read_error user_id=%s error=%v", userID, err)
			}
			return
		}
	}
}
