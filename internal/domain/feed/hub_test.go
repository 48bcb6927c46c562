package feed

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainerdesk/internal/pkg/jwt"
)

func TestPublishReachesConnectedTrainer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	defer hub.Close()
	jwtService := jwt.New("feed-secret", time.Hour)

	r := gin.New()
	NewWSHandler(hub, jwtService).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	trainer := uuid.New()
	token, err := jwtService.GenerateToken(trainer.String(), "trainer")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/schedule?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.IsOnline(trainer) }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(Event{Type: BookingCreated, TrainerID: trainer, Payload: map[string]string{"date": "2025-05-01"}})
	hub.Publish(Event{Type: BookingCreated, TrainerID: uuid.New()})

	var got Event
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, BookingCreated, got.Type)
	assert.Equal(t, trainer, got.TrainerID)
	assert.False(t, got.At.IsZero())
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewWSHandler(NewHub(), jwt.New("s", time.Hour)).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/schedule?token=garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/schedule", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendToOfflineUser(t *testing.T) {
	hub := NewHub()
	assert.False(t, hub.SendToUser(uuid.New(), "x"))
	assert.Zero(t, hub.OnlineCount())
}

func TestPublishDoesNotWaitOnStalledClient(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	trainer := uuid.New()
	stalled := newClient(trainer, nil)
	hub.mutex.Lock()
	hub.clients[trainer] = stalled
	hub.mutex.Unlock()

	start := time.Now()
	for i := 0; i < sendQueueSize; i++ {
		assert.True(t, hub.SendToUser(trainer, i))
	}
	hub.Publish(Event{Type: BookingCreated, TrainerID: trainer})
	assert.False(t, hub.SendToUser(trainer, "overflow"))
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, hub.IsOnline(trainer))

	stalled.stop()
	assert.False(t, hub.SendToUser(trainer, "after stop"))
}
