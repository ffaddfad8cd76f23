// Package websocket streams render views to connected spectator clients,
// fanned out per user with slow-client eviction.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wagerworks/towerd/internal/metrics"
)

const maxClientsPerUser = 50

const writeTimeout = 5 * time.Second

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	userID string
	conn   *websocket.Conn
	errCh  chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	userID string
	conn   *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdBroadcast struct {
	userID string
	data   []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdClientCount struct {
	userID  string
	replyCh chan int
}

func (cmdClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// clientWriter serializes writes to one connection through a buffered channel
// so a stalled client never blocks the hub loop.
type clientWriter struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

func newClientWriter(conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		sendCh: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// Hub routes view updates to every client watching a user's session. All
// state is owned by the single run loop; the public API communicates through
// the command channel.
type Hub struct {
	cmdCh   chan hubCmd
	clients map[string]map[*websocket.Conn]*clientWriter
}

// NewHub creates the hub and starts its loop.
func NewHub() *Hub {
	hub := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clients: make(map[string]map[*websocket.Conn]*clientWriter),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.userID, c.conn)
		case cmdBroadcast:
			h.handleBroadcast(c)
		case cmdClientCount:
			c.replyCh <- len(h.clients[c.userID])
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	clients, exists := h.clients[c.userID]
	if !exists {
		clients = make(map[*websocket.Conn]*clientWriter)
		h.clients[c.userID] = clients
	}
	if len(clients) >= maxClientsPerUser {
		c.conn.Close()
		c.errCh <- fmt.Errorf("max clients per user (%d) reached", maxClientsPerUser)
		return
	}

	clients[c.conn] = newClientWriter(c.conn)
	metrics.StreamClientsConnected.Inc()
	slog.Debug("Stream client registered", "user_id", c.userID, "clients", len(clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(userID string, conn *websocket.Conn) {
	clients, exists := h.clients[userID]
	if !exists {
		return
	}
	cw, exists := clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, conn)
	metrics.StreamClientsConnected.Dec()
	if len(clients) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) handleBroadcast(c cmdBroadcast) {
	clients, exists := h.clients[c.userID]
	if !exists {
		return
	}

	var slow []*websocket.Conn
	for conn, cw := range clients {
		select {
		case cw.sendCh <- c.data:
		default:
			slow = append(slow, conn)
		}
	}
	for _, conn := range slow {
		slog.Debug("Disconnecting slow stream client", "user_id", c.userID)
		h.handleUnregister(c.userID, conn)
	}
}

func (h *Hub) handleStop() {
	for userID, clients := range h.clients {
		for _, cw := range clients {
			cw.stop()
			metrics.StreamClientsConnected.Dec()
		}
		delete(h.clients, userID)
	}
}

// Register attaches a connection to a user's stream.
func (h *Hub) Register(userID string, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{userID: userID, conn: conn, errCh: errCh}
	return <-errCh
}

// Unregister detaches a connection.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{userID: userID, conn: conn}
}

// Broadcast sends raw bytes to every client on a user's stream.
func (h *Hub) Broadcast(userID string, data []byte) {
	h.cmdCh <- cmdBroadcast{userID: userID, data: data}
}

// BroadcastJSON marshals v and broadcasts it.
func (h *Hub) BroadcastJSON(userID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal stream message: %w", err)
	}
	h.Broadcast(userID, data)
	return nil
}

// ClientCount reports how many clients watch a user's stream.
func (h *Hub) ClientCount(userID string) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdClientCount{userID: userID, replyCh: replyCh}
	return <-replyCh
}

// Stop disconnects everything and ends the loop.
func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}
