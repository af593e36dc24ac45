// Package wsrt backs the WebSocket domain-stack opcodes SPEC_FULL.md §3
// adds (OP_WS_CONNECT/SEND/RECV/CLOSE), wrapping gorilla/websocket behind
// the same integer-handle convention internal/sqlrt uses for SQL
// connections and internal/vm uses for file streams.
//
// Grounded on internal/vm/network_websocket.go's connection-id-keyed
// handle map.
package wsrt

import (
	"fmt"

	"github.com/gorilla/websocket"
)

// Runtime owns every open WebSocket connection a running chunk has made.
type Runtime struct {
	conns  map[int]*websocket.Conn
	nextID int
}

// New returns an empty Runtime; handle 0 is never issued.
func New() *Runtime {
	return &Runtime{conns: make(map[int]*websocket.Conn), nextID: 1}
}

// Connect dials url and returns its handle.
func (r *Runtime) Connect(url string) (int, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return 0, err
	}
	id := r.nextID
	r.nextID++
	r.conns[id] = conn
	return id, nil
}

// Send writes msg as a text frame on handle.
func (r *Runtime) Send(handle int, msg string) error {
	conn, ok := r.conns[handle]
	if !ok {
		return fmt.Errorf("wsrt: unknown handle %d", handle)
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// Recv blocks for the next frame on handle and returns its payload as a
// string.
func (r *Runtime) Recv(handle int) (string, error) {
	conn, ok := r.conns[handle]
	if !ok {
		return "", fmt.Errorf("wsrt: unknown handle %d", handle)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close closes and forgets handle.
func (r *Runtime) Close(handle int) error {
	conn, ok := r.conns[handle]
	if !ok {
		return fmt.Errorf("wsrt: unknown handle %d", handle)
	}
	delete(r.conns, handle)
	return conn.Close()
}

// CloseAll closes every still-open socket, called from OP_HALT/OP_EXIT
// (spec.md §5).
func (r *Runtime) CloseAll() {
	for id, conn := range r.conns {
		conn.Close()
		delete(r.conns, id)
	}
}
