package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMembers struct {
	members map[int64]bool
}

func (f *fakeMembers) IsApprovedMember(ctx context.Context, societyID, userID int64) (bool, error) {
	return f.members[userID], nil
}

func newFeedServer(t *testing.T, userID int64) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	handler := NewHandler(hub, &fakeMembers{members: map[int64]bool{5: true}}, zerolog.Nop())
	router := gin.New()
	router.GET("/societies/:id/live", func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}, handler.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestLiveFeedDeliversSocietyMessages(t *testing.T) {
	hub, srv := newFeedServer(t, 5)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/societies/3/live"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.GetClientsCount(3) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(4, TypeCommentCreated, map[string]int{"commentId": 1})
	hub.Broadcast(3, TypeNewsPublished, map[string]int{"newsId": 9})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type      string         `json:"type"`
		SocietyID int64          `json:"societyId"`
		Payload   map[string]int `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeNewsPublished, msg.Type)
	assert.Equal(t, int64(3), msg.SocietyID)
	assert.Equal(t, 9, msg.Payload["newsId"])
}

func TestLiveFeedRejectsNonMembers(t *testing.T) {
	_, srv := newFeedServer(t, 6)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/societies/3/live"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLiveFeedUnregistersOnClose(t *testing.T) {
	hub, srv := newFeedServer(t, 5)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/societies/3/live"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.GetClientsCount(3) == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.GetClientsCount(3) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStoppedHubDoesNotBlockClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1), userID: 5, societyID: 3}
	require.True(t, hub.add(client))
	require.Eventually(t, func() bool { return hub.GetClientsCount(3) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	<-stopped
	assert.Zero(t, hub.GetClientsCount(3))

	returned := make(chan bool)
	go func() {
		hub.remove(client)
		returned <- hub.add(&Client{hub: hub, send: make(chan []byte, 1), societyID: 3})
	}()
	select {
	case ok := <-returned:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client blocked on a stopped hub")
	}
}

func TestLiveFeedAfterShutdownClosesConnection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	handler := NewHandler(hub, &fakeMembers{members: map[int64]bool{5: true}}, zerolog.Nop())
	router := gin.New()
	router.GET("/societies/:id/live", func(c *gin.Context) {
		c.Set("userID", int64(5))
		c.Next()
	}, handler.HandleConnection)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/societies/3/live"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
