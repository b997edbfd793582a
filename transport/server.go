// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/overgrid/relay/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server is the HTTP/WebSocket front door, routed with gorilla/mux: three
// routes is exactly the case mux earns its keep on once a debug surface
// (/, /healthz) sits next to /ws.
type Server struct {
	register   chan<- *Conn
	unregister chan<- *Conn
	inbound    chan<- InboundFrame
	log        logrus.FieldLogger
}

func NewServer(register, unregister chan<- *Conn, inbound chan<- InboundFrame, log logrus.FieldLogger) *Server {
	return &Server{register: register, unregister: unregister, inbound: inbound, log: log}
}

// Router builds the mux.Router serving the debug index, health probe, and
// websocket upgrade endpoints described in SPEC_FULL §4.9.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.serveHealthz).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWebSocket)
	return r
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) serveHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	key, err := session.NewClientKey()
	if err != nil {
		s.log.WithError(err).Error("failed to mint client key")
		_ = ws.Close()
		return
	}

	conn := newConn(ws, key, s.unregister, s.inbound)
	go conn.writePump()
	go conn.readPump()

	s.register <- conn
}
