package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/valuebet/internal/config"
	"github.com/yourusername/valuebet/internal/models"
)

func newHubServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(discardLogger())
	router := NewRouter(RouterDeps{
		Service: new(MockAnalysisService),
		Hub:     hub,
		Metrics: config.MetricsConfig{},
		Logger:  discardLogger(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/value-bets"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readRun(t *testing.T, conn *websocket.Conn) RunMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg RunMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func testRun(id string) *models.AnalysisRun {
	return &models.AnalysisRun{
		ID:         id,
		FinishedAt: testKickoff,
		Evaluated:  4,
		Candidates: []models.ValueBetCandidate{testCandidate(100, 0.1, 1)},
		Failures:   []models.FixtureFailure{{FixtureID: 7, Reason: "insufficient_data"}},
	}
}

func TestHubPublishesToSubscribers(t *testing.T) {
	hub, url := newHubServer(t)
	first := dial(t, url)
	second := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(testRun("run-1"))

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readRun(t, conn)
		assert.Equal(t, "value_bets", msg.Type)
		assert.Equal(t, "run-1", msg.RunID)
		assert.Equal(t, 1, msg.Failures)
		require.Len(t, msg.Response, 1)
		assert.Equal(t, 10.0, msg.Response[0].Edge)
	}
}

func TestHubReplaysLatestRunOnConnect(t *testing.T) {
	hub, url := newHubServer(t)
	hub.Publish(testRun("run-1"))
	hub.Publish(testRun("run-2"))

	conn := dial(t, url)

	assert.Equal(t, "run-2", readRun(t, conn).RunID)
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub, url := newHubServer(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
