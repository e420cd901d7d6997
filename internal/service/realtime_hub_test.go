package service

import (
	"aiedu_backend/internal/model"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanSubscribe(t *testing.T) {
	cases := []struct {
		topic string
		role  model.UserRole
		want  bool
	}{
		{TopicNews, model.Student, true},
		{TopicPaths, model.Student, true},
		{DraftTopic("d1"), model.Student, false},
		{DraftTopic("d1"), model.Editor, true},
		{DraftTopic("d1"), model.Admin, true},
		{"draft:", model.Admin, false},
		{"users", model.Admin, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, canSubscribe(tc.topic, tc.role), "%s as %s", tc.topic, tc.role)
	}
}

// dialHub 以指定角色连接 hub，返回客户端连接和服务端 Client
func dialHub(t *testing.T, hub *RealtimeHub, role model.UserRole, topics string) (*websocket.Conn, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, "u-"+string(role), role)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?topics=" + topics
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var client *Client
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		for c := range hub.clients {
			if c.UserID == "u-"+string(role) {
				client = c
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	return conn, client
}

func readEvent(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg WSMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestRealtimeHub_DraftTopicsRequireEditor(t *testing.T) {
	hub := NewRealtimeHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	student, studentClient := dialHub(t, hub, model.Student, "news,draft:d1")
	editor, _ := dialHub(t, hub, model.Editor, "news,draft:d1")
	assert.False(t, studentClient.subscribed(DraftTopic("d1")))

	hub.Publish(DraftTopic("d1"), "draft_saved", map[string]string{"id": "d1"})
	hub.Publish(TopicNews, "news_updated", nil)

	// 每个连接按发布顺序收到事件，学生的第一条就是新闻
	assert.Equal(t, "news_updated", readEvent(t, student).Type)
	assert.Equal(t, "draft_saved", readEvent(t, editor).Type)
	assert.Equal(t, "news_updated", readEvent(t, editor).Type)
}

func TestRealtimeHub_SubscribeCommandChecksRole(t *testing.T) {
	hub := NewRealtimeHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	conn, client := dialHub(t, hub, model.Student, "")
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe", "topic": DraftTopic("d1")}))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe", "topic": TopicPaths}))

	require.Eventually(t, func() bool { return client.subscribed(TopicPaths) }, time.Second, 5*time.Millisecond)
	assert.False(t, client.subscribed(DraftTopic("d1")))
}
