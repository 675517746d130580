package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"botbridge.gg/internal/protocol"
	"botbridge.gg/internal/server"
)

const (
	handshakeTimeout = 5 * time.Second
	readTimeout      = 60 * time.Second
	writeTimeout     = 5 * time.Second
	outboxSize       = 16
)

// Server upgrades bot sockets and bridges them onto the coordinator. The
// socket's reader stays on its own goroutine; everything it receives is
// handed to the coordinator, which marshals the work onto the simulation
// thread.
type Server struct {
	core *server.Server
	log  *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(core *server.Server, logger *log.Logger) *Server {
	return &Server{
		core: core,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		clientID, ok := s.handshake(conn)
		if !ok {
			return
		}

		// Reader loop. A dead socket only detaches the transport; the
		// connection record survives so the bot can reconnect.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := protocol.DecodeClientMessage(raw)
			if err != nil {
				continue
			}
			if !s.core.ValidateToken(clientID, msg.Token) {
				continue
			}
			switch msg.Type {
			case protocol.TypeActionRequest:
				var req protocol.ActionRequest
				if err := json.Unmarshal(msg.Data, &req); err != nil {
					continue
				}
				s.core.HandleActionRequest(clientID, req)
			case protocol.TypeValidationResult:
				var result protocol.ValidationResult
				if err := json.Unmarshal(msg.Data, &result); err != nil {
					continue
				}
				s.core.HandleValidationResult(clientID, result)
			case protocol.TypeTeardown:
				s.core.HandleClientTeardown(clientID)
				return
			}
		}
	}
}

// handshake reads the opening message, admits the client, and queues the
// handshake task. The acknowledgement flows back through the writer
// goroutine once the simulation thread processes it.
func (s *Server) handshake(conn *websocket.Conn) (int64, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return 0, false
	}
	msg, err := protocol.DecodeClientMessage(raw)
	if err != nil || msg.Type != protocol.TypeHandshake {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected handshake"),
			time.Now().Add(time.Second))
		return 0, false
	}
	var hs protocol.ClientHandshake
	if err := json.Unmarshal(msg.Data, &hs); err != nil {
		return 0, false
	}

	tr := newTransport(conn)
	s.core.AdmitRemote(msg.ClientID, tr)
	s.core.HandleClientHandshake(msg.ClientID, hs)
	s.log.Printf("client %d connected from %s", msg.ClientID, conn.RemoteAddr())
	return msg.ClientID, true
}

// transport is the write half of one socket. Sends from the simulation
// thread enqueue; a writer goroutine owns the actual socket writes.
type transport struct {
	conn *websocket.Conn

	closeOnce sync.Once
	done      chan struct{}
	out       chan []byte
}

func newTransport(conn *websocket.Conn) *transport {
	t := &transport{
		conn: conn,
		done: make(chan struct{}),
		out:  make(chan []byte, outboxSize),
	}
	go t.writeLoop()
	return t
}

func (t *transport) writeLoop() {
	for {
		select {
		case <-t.done:
			return
		case b := <-t.out:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := t.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = t.Close()
				return
			}
		}
	}
}

func (t *transport) WriteMessage(m protocol.ServerMessage) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	select {
	case <-t.done:
		return websocket.ErrCloseSent
	case t.out <- b:
		return nil
	default:
		return errOutboxFull
	}
}

func (t *transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		_ = t.conn.Close()
	})
	return nil
}

var errOutboxFull = &websocket.CloseError{Code: websocket.CloseTryAgainLater, Text: "outbox full"}

var _ server.Transport = (*transport)(nil)
