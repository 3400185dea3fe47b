/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	conn     *websocket.Conn
	send     chan Event
	playerID string
	limiter  *rate.Limiter
}

// Transport bridges websocket connections to the Coordinator. A connection's
// handle doubles as its player ID.
type Transport struct {
	cfg   *Config
	coord *Coordinator

	mu      sync.RWMutex
	clients map[string]*Client
}

func newTransport(cfg *Config, coord *Coordinator) *Transport {
	return &Transport{
		cfg:     cfg,
		coord:   coord,
		clients: make(map[string]*Client),
	}
}

func (t *Transport) register(c *Client) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clients[c.playerID] = c
}

// dropLocked removes the client and closes its send channel. The channel is
// only ever closed here, under the write lock.
func (t *Transport) dropLocked(id string) bool {
	c, ok := t.clients[id]
	if !ok {
		return false
	}

	delete(t.clients, id)
	close(c.send)

	return true
}

func (t *Transport) drop(ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		if t.dropLocked(id) {
			logf(t.cfg, "SERVE: Closed connection %s", id)
		}
	}
}

// Deliver queues each event for its recipients without blocking. Clients
// whose buffer is full are disconnected.
func (t *Transport) Deliver(deliveries []Delivery) {
	var slow []string

	t.mu.RLock()
	for _, d := range deliveries {
		for _, id := range d.To {
			c, ok := t.clients[id]
			if !ok {
				continue
			}

			select {
			case c.send <- d.Event:
			default:
				slow = append(slow, id)
			}
		}
	}
	t.mu.RUnlock()

	if len(slow) > 0 {
		t.drop(slow...)
	}
}

func (t *Transport) serveWS() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errorf("upgrade from %s failed: %v", realIP(r), err)

			return
		}

		c := &Client{
			conn:     conn,
			send:     make(chan Event, sendBuffer),
			playerID: uuid.NewString(),
			limiter:  rate.NewLimiter(rate.Limit(t.cfg.rateLimit), t.cfg.rateBurst),
		}

		t.register(c)

		logf(t.cfg, "SERVE: Opened connection %s for %s", c.playerID, realIP(r))

		go c.writePump()
		c.readPump(t)
	}
}

func (c *Client) readPump(t *Transport) {
	defer func() {
		t.drop(c.playerID)
		_ = c.conn.Close()

		t.Deliver(t.coord.Dispatch(c.playerID, Disconnect{}))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		t.coord.Touch(c.playerID)

		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		t.coord.Touch(c.playerID)

		if !c.limiter.Allow() {
			t.Deliver([]Delivery{errorDelivery(c.playerID, ErrRateLimited)})

			continue
		}

		msg, err := decodeInbound(data)
		if err != nil {
			t.Deliver([]Delivery{errorDelivery(c.playerID, err)})

			continue
		}

		t.Deliver(t.coord.Dispatch(c.playerID, msg))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}

			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
