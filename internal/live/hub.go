// Package live pushes committed document updates to websocket clients.
package live

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tliron/commonlog"

	"htmleditor/internal/mutation"
)

var log = commonlog.GetLogger("htmleditor.live")

const (
	writeWait  = 10 * time.Second
	sendBuffer = 64
)

// Message is sent to clients. "init" and "update" carry the whole source;
// "patch" carries only the edits from the client's previous version.
type Message struct {
	Op      string           `json:"op"`
	Session string           `json:"session"`
	Update  *mutation.Update `json:"update,omitempty"`
	Patch   *Patch           `json:"patch,omitempty"`
}

// Patch moves a client that is in sync to the next version.
type Patch struct {
	Version int64               `json:"version"`
	Origin  mutation.Origin     `json:"origin"`
	Edits   []mutation.TextEdit `json:"edits"`
}

type client struct {
	conn *websocket.Conn
	send chan mutation.Update
	once sync.Once
}

func newClient(conn *websocket.Conn, buffer int) *client {
	return &client{conn: conn, send: make(chan mutation.Update, buffer)}
}

// close is called with the hub lock held, so no send can race it.
func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// Hub tracks the websocket clients of every session.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]map[*client]bool
}

// NewHub creates a hub accepting connections from origin. "*" or an empty
// origin accepts any.
func NewHub(origin string) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
			if origin == "" || origin == "*" {
				return true
			}
			return r.Header.Get("Origin") == "" || r.Header.Get("Origin") == origin
		}},
		clients: make(map[string]map[*client]bool),
	}
}

type sessionView struct {
	hub     *Hub
	session string
}

func (v sessionView) Publish(u mutation.Update) {
	v.hub.Broadcast(v.session, u)
}

// View returns a mutation.View that broadcasts to the session's clients.
func (h *Hub) View(session string) mutation.View {
	return sessionView{hub: h, session: session}
}

// Clients reports how many clients watch a session.
func (h *Hub) Clients(session string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[session])
}

// Broadcast queues an update for every client of a session. It never
// blocks: a client whose queue is full is dropped.
func (h *Hub) Broadcast(session string, u mutation.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[session] {
		select {
		case c.send <- u:
		default:
			log.Infof("dropping slow client of session %s", session)
			delete(h.clients[session], c)
			c.close()
		}
	}
	if len(h.clients[session]) == 0 {
		delete(h.clients, session)
	}
}

func (h *Hub) add(session string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[session] == nil {
		h.clients[session] = make(map[*client]bool)
	}
	h.clients[session][c] = true
}

func (h *Hub) remove(session string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[session]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, session)
		}
	}
	c.close()
}

// Serve upgrades the request and keeps the connection registered until the
// client goes away. The init snapshot is taken after registration, so no
// commit falls between it and the first update.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, session string, snapshot func() mutation.Snapshot) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debugf("websocket upgrade: %s", err)
		return
	}
	c := newClient(conn, sendBuffer)
	h.add(session, c)
	defer h.remove(session, c)

	go c.write(session, snapshot())

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// write sends the init message and then every queued update. A mirror of
// the client's text decides between a patch and a full update; updates the
// client already has are skipped.
func (c *client) write(session string, snap mutation.Snapshot) {
	mirror := mutation.NewTextView(snap)
	first := mutation.Update{Version: snap.Version, Source: snap.Source, Origin: mutation.OriginSystem}
	if err := c.writeJSON(Message{Op: "init", Session: session, Update: &first}); err != nil {
		c.conn.Close()
		return
	}
	for u := range c.send {
		version, resets := mirror.Version(), mirror.Resets()
		mirror.Publish(u)
		if mirror.Version() == version {
			continue
		}
		msg := Message{Op: "patch", Session: session, Patch: &Patch{Version: u.Version, Origin: u.Origin, Edits: u.Edits}}
		if mirror.Resets() != resets {
			update := u
			update.Edits = nil
			msg = Message{Op: "update", Session: session, Update: &update}
		}
		if err := c.writeJSON(msg); err != nil {
			log.Debugf("write to %s: %s", c.conn.RemoteAddr(), err)
			c.conn.Close()
			return
		}
	}
}

func (c *client) writeJSON(msg Message) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}

// Close disconnects every client of a session.
func (h *Hub) Close(session string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[session] {
		c.close()
	}
	delete(h.clients, session)
}
