package status

import (
	"encoding/json"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestBroadcasterReplayAndSend(t *testing.T) {
	b := NewBroadcaster()
	b.Send(&Message{Message: "mounted", Type: INFO})

	srv := httptest.NewServer(b)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	assert.Equal(t, "mounted", readMessage(t, conn).Message)
	assert.Equal(t, 1, b.Clients())

	b.Send(&Message{Message: "decoding", Type: PROGRESS, Progress: 0.5})
	m := readMessage(t, conn)
	assert.Equal(t, "decoding", m.Message)
	assert.Equal(t, float32(0.5), m.Progress)

	conn.Close()
	assert.Eventually(t, func() bool { return b.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestBroadcasterSlowClient(t *testing.T) {
	b := NewBroadcaster()
	c := &client{send: make(chan []byte, 1), b: b}
	b.clients[c] = true

	// second send is dropped instead of blocking
	b.Send(&Message{Message: "one"})
	b.Send(&Message{Message: "two"})
	assert.Len(t, c.send, 1)
	assert.Equal(t, "two", b.Last().Message)

	b.drop(c)
	b.drop(c)
	assert.Equal(t, 0, b.Clients())
}

func TestBroadcasterProgressSanitized(t *testing.T) {
	b := NewBroadcaster()
	assert.Nil(t, b.Last())
	b.Send(&Message{Message: "nan", Type: PROGRESS, Progress: float32(math.NaN())})
	assert.Equal(t, float32(0), b.Last().Progress)
}
