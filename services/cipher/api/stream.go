// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/monosub/services/cipher/anneal"
	"github.com/AleutianAI/monosub/services/cipher/session"
)

const streamWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
}

// StreamMessage is one websocket frame of a progress stream.
type StreamMessage struct {
	Snapshot  anneal.Snapshot `json:"snapshot"`
	Plaintext string          `json:"plaintext,omitempty"`
	Final     bool            `json:"final"`
}

// HandleStream handles GET /v1/search/:id/stream.
//
// Each rate-limited snapshot is sent as a StreamMessage. The last message
// has Final set and the server then closes the connection normally.
func (h *Handlers) HandleStream(c *gin.Context) {
	logger := h.requestLogger(c, "HandleStream")
	handle := session.Handle(c.Param("id"))

	st, err := h.searcher.Status(handle)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	snaps, unsubscribe, err := h.searcher.Subscribe(handle)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	defer unsubscribe()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	// Drain client frames so control messages are processed and a client
	// close ends the stream.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			logger.Debug("Stream client went away", "handle", handle)
			return
		case snap, ok := <-snaps:
			if !ok {
				closeStream(ws)
				return
			}
			msg := StreamMessage{Snapshot: snap, Final: snap.State.IsTerminal()}
			if snap.BestKey.Valid() {
				msg.Plaintext = snap.BestKey.Decrypt(st.Ciphertext)
			}
			if err := sendJSON(ws, msg); err != nil {
				logger.Warn("Stream write failed", "handle", handle, "error", err)
				return
			}
			if msg.Final {
				closeStream(ws)
				return
			}
		}
	}
}

func sendJSON(ws *websocket.Conn, v any) error {
	_ = ws.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return ws.WriteJSON(v)
}

func closeStream(ws *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "search finished")
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
