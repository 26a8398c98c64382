// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package httpapi

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/topic-gardener/topic-gardener/internal/registry"
	"github.com/topic-gardener/topic-gardener/pkg/logging"
)

// OperationsHub fans newly appended operations out to every connected
// /ws/operations client. It holds no history: a client that connects
// late only sees operations emitted after it subscribed, the same
// no-replay behavior the rest of the service gives callers of the
// in-memory operation log.
type OperationsHub struct {
	mu   sync.Mutex
	subs map[chan registry.Operation]struct{}
}

// NewOperationsHub builds an empty hub.
func NewOperationsHub() *OperationsHub {
	return &OperationsHub{subs: make(map[chan registry.Operation]struct{})}
}

// Publish fans out every operation in ops to all current subscribers. A
// subscriber that is not keeping up has its send dropped rather than
// blocking the publisher.
func (h *OperationsHub) Publish(ops []registry.Operation) {
	if len(ops) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		for _, op := range ops {
			select {
			case ch <- op:
			default:
			}
		}
	}
}

func (h *OperationsHub) subscribe() chan registry.Operation {
	ch := make(chan registry.Operation, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *OperationsHub) unsubscribe(ch chan registry.Operation) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are expected to be same-origin or explicitly operator
	// configured; this service has no cross-origin policy of its own to
	// enforce, matching the core spec's no-authentication Non-goal.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// operationsStreamHandler upgrades GET /ws/operations to a WebSocket and
// writes each newly published operation as a JSON frame until the client
// disconnects.
func operationsStreamHandler(hub *OperationsHub, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("ws upgrade failed", "error", err.Error())
			return
		}
		defer conn.Close()

		ch := hub.subscribe()
		defer hub.unsubscribe(ch)

		// Drain client-initiated control/close frames in the background
		// so the connection's read side stays serviced; this handler
		// neither expects nor acts on client messages.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return
			case op := <-ch:
				if err := conn.WriteJSON(op); err != nil {
					return
				}
			}
		}
	}
}
