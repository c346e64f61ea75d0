package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/kiwari-pos/ledger/internal/auth"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Origins are not checked; every connection carries a JWT.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Client is one connected terminal or kitchen display.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	room     string
	username string
	send     chan []byte
}

// ReadPump discards inbound frames and leaves the hub once the peer goes
// away or stops answering pings.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			log.Warn().Err(err).Str("user", c.username).Str("room", c.room).Msg("websocket read")
		}
		return
	}
}

// WritePump delivers hub events and keeps the connection alive with pings.
// Events already queued when a write starts go out in the same frame,
// separated by newlines.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.deadline()
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.writeFrame(message); err != nil {
				log.Debug().Err(err).Str("user", c.username).Msg("websocket write")
				return
			}
		case <-ticker.C:
			c.deadline()
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) deadline() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
}

func (c *Client) writeFrame(first []byte) error {
	c.deadline()
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	if _, err := w.Write(first); err != nil {
		return err
	}
	for range len(c.send) {
		if _, err := w.Write(append([]byte{'\n'}, <-c.send...)); err != nil {
			return err
		}
	}
	return w.Close()
}

// requestToken reads the JWT from the token query parameter, which browsers
// must use, or from a bearer Authorization header.
func requestToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "bearer") {
		return token
	}
	return ""
}

// ServeWS upgrades GET /ws/{room} for an authenticated caller and joins the
// connection to that room.
func ServeWS(hub *Hub, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	token := requestToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := auth.ValidateToken(jwtSecret, token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	room := chi.URLParam(r, "room")
	if !IsRoom(room) {
		http.Error(w, "unknown room", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade")
		return
	}

	c := &Client{
		hub:      hub,
		conn:     conn,
		room:     room,
		username: claims.Username,
		send:     make(chan []byte, sendBuffer),
	}
	hub.join(c)
	log.Debug().Str("user", c.username).Str("room", room).Msg("websocket joined")

	go c.WritePump()
	go c.ReadPump()
}
