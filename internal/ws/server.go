package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"chip-table/internal/table"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendBuffer = 32
	writeWait  = 5 * time.Second
)

type Client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// Server streams table events to websocket watchers. Each watcher first gets
// a snapshot, then every event in order; events may overlap the snapshot (see
// SnapshotMessage). Watchers that fall behind are dropped.
type Server struct {
	table       TableView
	upgrader    websocket.Upgrader
	mu          sync.Mutex
	clients     map[*Client]bool
	unsubscribe func()
}

func NewServer(tv TableView) *Server {
	s := &Server{
		table:    tv,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  map[*Client]bool{},
	}
	s.unsubscribe = tv.Subscribe(s.broadcast)
	return s
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{conn: conn, send: make(chan []byte, sendBuffer)}
	// Registering and queueing the snapshot under one lock keeps the
	// snapshot ahead of any event.
	s.mu.Lock()
	s.clients[client] = true
	if snap, err := json.Marshal(snapshotOf(s.table)); err == nil {
		s.deliverLocked(client, snap)
	}
	s.mu.Unlock()

	go s.writeLoop(client)
	s.readLoop(client)
}

// Close detaches from the table and disconnects every watcher.
func (s *Server) Close() {
	s.unsubscribe()
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
	}
}

func (s *Server) Watchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		s.unregister(c)
		_ = c.conn.Close()
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}
		if base.Type == msgRequestSnapshot {
			s.sendSnapshot(c)
		}
	}
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			_ = c.conn.Close()
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}

func (s *Server) sendSnapshot(c *Client) {
	b, err := json.Marshal(snapshotOf(s.table))
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliverLocked(c, b)
}

// broadcast runs on the table loop, so it never blocks.
func (s *Server) broadcast(ev table.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", string(ev.Type)).Msg("encode table event failed")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		s.deliverLocked(c, b)
	}
}

func (s *Server) deliverLocked(c *Client, b []byte) {
	if !s.clients[c] {
		return
	}
	select {
	case c.send <- b:
	default:
		log.Warn().Str("table_id", s.table.ID()).Msg("dropping slow table watcher")
		delete(s.clients, c)
		c.close()
	}
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c] {
		delete(s.clients, c)
		c.close()
	}
}
