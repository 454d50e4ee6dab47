package status

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	INFO = iota
	ERROR
	PROGRESS
)

type Message struct {
	Message  string
	Time     time.Time
	Type     int
	Progress float32
}

const (
	clientQueueSize = 32
	pingPeriod      = 30 * time.Second
	writeWait       = 40 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	b    *Broadcaster
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.b.unregister(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

// readPump drains control frames, returns when peer closes
func (c *client) readPump() {
	defer c.b.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcaster fans status messages out to websocket clients.
// Slow clients lose messages instead of blocking senders.
type Broadcaster struct {
	lock     sync.Mutex
	clients  map[*client]bool
	last     []byte
	upgrader websocket.Upgrader
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (b *Broadcaster) register(c *client) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.clients[c] = true
	if b.last != nil {
		c.send <- b.last
	}
}

func (b *Broadcaster) unregister(c *client) {
	b.lock.Lock()
	defer b.lock.Unlock()
	delete(b.clients, c)
}

// drop closes send queue once, writePump then finishes connection
func (b *Broadcaster) drop(c *client) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.clients[c] {
		delete(b.clients, c)
		close(c.send)
	}
}

func (b *Broadcaster) Clients() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.clients)
}

// Last returns last broadcasted message, nil if nothing sent yet
func (b *Broadcaster) Last() *Message {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.last == nil {
		return nil
	}
	var m Message
	if err := json.Unmarshal(b.last, &m); err != nil {
		return nil
	}
	return &m
}

func (b *Broadcaster) Send(m *Message) {
	if math.IsNaN(float64(m.Progress)) || math.IsInf(float64(m.Progress), 0) {
		m.Progress = 0
	}
	data, err := json.Marshal(m)
	if err != nil {
		log.Printf("[status] marshal error: %v", err)
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	b.last = data
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ServeHTTP upgrades request to websocket and replays last message
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[status] ws upgrade error: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientQueueSize), b: b}
	b.register(c)
	go c.writePump()
	go c.readPump()
}

var Default = NewBroadcaster()

func Status(msg string, _type int, progress float32) {
	Default.Send(&Message{
		Message:  msg,
		Time:     time.Now(),
		Type:     _type,
		Progress: progress,
	})
}

func Info(format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), INFO, 0.0)
}

func Error(format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), ERROR, 0.0)
}

func Progress(progress float32, format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), PROGRESS, progress)
}
