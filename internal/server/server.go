package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/lotas/tabgruppen/internal/applog"
	"nhooyr.io/websocket"
)

// IncomingMsg is a message from the extension to this program.
//
// Event types: "snapshot", "tab.created", "tab.updated", "tab.moved",
// "tab.removed", "group.created", "group.updated", "group.removed".
// Messages with a non-empty ID and OK set are command responses.
type IncomingMsg struct {
	Type     string          `json:"type"`
	Tab      json.RawMessage `json:"tab,omitempty"`
	Tabs     json.RawMessage `json:"tabs,omitempty"`
	Group    json.RawMessage `json:"group,omitempty"`
	Groups   json.RawMessage `json:"groups,omitempty"`
	TabID    int             `json:"tabId,omitempty"`
	WindowID int             `json:"windowId,omitempty"`
	// Command response fields
	ID      string `json:"id,omitempty"`
	OK      *bool  `json:"ok,omitempty"`
	Error   string `json:"error,omitempty"`
	GroupID int    `json:"groupId,omitempty"`
}

// TabToOpen specifies a tab to create in the browser.
type TabToOpen struct {
	URL    string `json:"url"`
	Pinned bool   `json:"pinned,omitempty"`
}

// OutgoingMsg is a command to the extension.
//
// Actions: "query" (re-send a full snapshot), "create-group",
// "update-group", "ungroup", "move", "close", "focus", "open"
// (into groupId when set).
type OutgoingMsg struct {
	ID        string      `json:"id"`
	Action    string      `json:"action"`
	TabID     int         `json:"tabId,omitempty"`
	TabIDs    []int       `json:"tabIds,omitempty"`
	GroupID   int         `json:"groupId,omitempty"`
	Tabs      []TabToOpen `json:"tabs,omitempty"`
	Name      string      `json:"name,omitempty"`
	Color     string      `json:"color,omitempty"`
	Collapsed *bool       `json:"collapsed,omitempty"`
}

// Server manages the WebSocket connection to the extension. At most one
// extension is connected at a time; a new connection replaces the old one.
type Server struct {
	port    int
	msgs    chan IncomingMsg
	mu      sync.Mutex
	conn    *websocket.Conn
	connCtx context.Context
}

// New creates a new Server. Port 0 means the caller manages the listener.
func New(port int) *Server {
	return &Server{
		port: port,
		msgs: make(chan IncomingMsg, 64),
	}
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Messages returns the channel of incoming messages from the extension.
func (s *Server) Messages() <-chan IncomingMsg {
	return s.msgs
}

// Connected reports whether an extension is connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send sends a command to the connected extension. Sending with no
// extension connected is a no-op; the next snapshot reconciles anyway.
func (s *Server) Send(msg OutgoingMsg) error {
	s.mu.Lock()
	conn := s.conn
	ctx := s.connCtx
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	applog.Info("ws.send", "action", msg.Action, "id", msg.ID)
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// Handler returns an http.Handler that accepts WebSocket upgrades.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			applog.Error("ws.accept", err)
			return
		}

		conn.SetReadLimit(16 << 20) // 16 MB — snapshots with many tabs can be large

		ctx := r.Context()
		s.mu.Lock()
		if s.conn != nil {
			applog.Info("ws.replaced")
			s.conn.CloseNow()
		}
		s.conn = conn
		s.connCtx = ctx
		s.mu.Unlock()

		applog.Info("ws.connected", "remote", r.RemoteAddr)

		defer func() {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				s.connCtx = nil
			}
			s.mu.Unlock()
			conn.CloseNow()
			applog.Info("ws.disconnected")
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg IncomingMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				applog.Error("ws.parse", err)
				continue
			}
			applog.Info("ws.recv", "type", msg.Type)
			select {
			case s.msgs <- msg:
			default:
			}
		}
	})
}

// ListenAndServe starts the WebSocket server on the configured port.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	applog.Info("server.start", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	return srv.ListenAndServe()
}
