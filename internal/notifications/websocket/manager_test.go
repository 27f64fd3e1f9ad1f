package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/notifications"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConnections(t *testing.T, m *Manager, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return m.GetConnectionCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestManager_PublishRespectsSiteFilter(t *testing.T) {
	m := NewManager(zap.NewNop())
	defer m.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = m.HandleConnection(w, r)
	}))
	defer srv.Close()

	all := dial(t, srv, "")
	angul := dial(t, srv, "?site=Angul+Mine")
	waitForConnections(t, m, 2)

	m.Publish(notifications.Message{Type: notifications.EventPlanGenerated, Target: "Talcher Mine"})
	m.Publish(notifications.Message{Type: notifications.EventPlanSimulated, Target: "Angul Mine"})

	var got notifications.Message
	require.NoError(t, all.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, notifications.EventPlanGenerated, got.Type)
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, notifications.EventPlanSimulated, got.Type)

	require.NoError(t, angul.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, angul.ReadJSON(&got))
	assert.Equal(t, notifications.EventPlanSimulated, got.Type)
	assert.Equal(t, "Angul Mine", got.Target)

	info := m.GetConnectionInfo()
	assert.Len(t, info, 2)
}

func TestManager_SubscribeRepliesOnlyToSender(t *testing.T) {
	m := NewManager(zap.NewNop())
	defer m.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = m.HandleConnection(w, r)
	}))
	defer srv.Close()

	client := dial(t, srv, "")
	waitForConnections(t, m, 1)

	require.NoError(t, client.WriteJSON(notifications.Message{
		Type: notifications.WSMessageTypeSubscribe,
		Data: map[string]any{"sites": []string{"Angul Mine"}},
	}))

	var got notifications.Message
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, notifications.WSMessageTypeStatus, got.Type)
	assert.Equal(t, "subscribed", got.Data["status"])
	assert.Equal(t, float64(1), got.Data["sites"])
}

func TestManager_SiteFilterIsNormalised(t *testing.T) {
	m := NewManager(zap.NewNop())
	defer m.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = m.HandleConnection(w, r)
	}))
	defer srv.Close()

	byQuery := dial(t, srv, "?site=+angul+mine+")
	bySubscribe := dial(t, srv, "")
	waitForConnections(t, m, 2)

	require.NoError(t, bySubscribe.WriteJSON(notifications.Message{
		Type: notifications.WSMessageTypeSubscribe,
		Data: map[string]any{"sites": []string{"TALCHER mine"}},
	}))

	var got notifications.Message
	require.NoError(t, bySubscribe.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, bySubscribe.ReadJSON(&got))
	require.Equal(t, notifications.WSMessageTypeStatus, got.Type)

	m.Publish(notifications.Message{Type: notifications.EventPlanGenerated, Target: "Talcher Mine"})
	m.Publish(notifications.Message{Type: notifications.EventPlanGenerated, Target: "Angul Mine"})

	require.NoError(t, byQuery.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, byQuery.ReadJSON(&got))
	assert.Equal(t, "Angul Mine", got.Target)

	require.NoError(t, bySubscribe.ReadJSON(&got))
	assert.Equal(t, "Talcher Mine", got.Target)
}

func TestManager_DisconnectUnregisters(t *testing.T) {
	m := NewManager(zap.NewNop())
	defer m.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = m.HandleConnection(w, r)
	}))
	defer srv.Close()

	client := dial(t, srv, "")
	waitForConnections(t, m, 1)

	require.NoError(t, client.Close())
	waitForConnections(t, m, 0)
}
