package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/alexmercer/bookbrain/internal/chat"
	"github.com/alexmercer/bookbrain/internal/server/dto"
	"github.com/alexmercer/bookbrain/internal/svcctx"
)

func pathUUIDPlain(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	return id, err == nil
}

// wsConn serializes writes across the ping goroutine and the handler
// goroutine. gorilla/websocket allows only one concurrent writer.
type wsConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

// processingPollInterval is how often /ws/processing polls jobstore for
// active jobs and pushes a fresh snapshot to the client.
const processingPollInterval = 2 * time.Second

// pingInterval keeps idle connections from being reaped by intermediate
// proxies, matching the ecosystem-standard gorilla/websocket keepalive idiom.
const pingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// registerWebSocketRoutes wires /ws/processing and /ws/chat/{session_id}
// directly on the mux: neither has a CLI counterpart, so they sit outside
// the api.Endpoint registry.
func registerWebSocketRoutes(mux *http.ServeMux, s *Server) {
	mux.HandleFunc("GET /ws/processing", s.handleProcessingWS)
	mux.HandleFunc("GET /ws/chat/{session_id}", s.handleChatWS)
}

type processingJob struct {
	JobID     string  `json:"job_id"`
	BookID    string  `json:"book_id"`
	Stage     string  `json:"stage"`
	Status    string  `json:"status"`
	Attempts  int     `json:"attempts"`
	LastError string  `json:"last_error,omitempty"`
}

// handleProcessingWS streams a snapshot of every pending/running job every
// processingPollInterval until the client disconnects.
func (s *Server) handleProcessingWS(w http.ResponseWriter, r *http.Request) {
	if s.services == nil {
		http.Error(w, "server not fully initialized", http.StatusServiceUnavailable)
		return
	}

	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("processing ws upgrade failed", "error", err)
		return
	}
	conn := &wsConn{Conn: raw}
	defer conn.Close()

	store := svcctx.JobStoreFrom(r.Context())
	ticker := time.NewTicker(processingPollInterval)
	defer ticker.Stop()

	go drainPings(conn)

	for {
		jobs, err := store.ListActive(r.Context())
		if err != nil {
			s.logger.Warn("processing ws list active failed", "error", err)
			return
		}
		out := make([]processingJob, len(jobs))
		for i, j := range jobs {
			out[i] = processingJob{
				JobID: j.ID.String(), BookID: j.BookID.String(), Stage: j.Stage,
				Status: j.Status, Attempts: j.Attempts, LastError: j.LastError,
			}
		}
		if err := conn.WriteJSON(out); err != nil {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// handleChatWS streams one assistant reply per inbound text message, using
// chat.Assembler.Stream to emit content/sources/done frames as they arrive.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	if s.services == nil {
		http.Error(w, "server not fully initialized", http.StatusServiceUnavailable)
		return
	}
	sessionID, ok := pathUUIDPlain(r.PathValue("session_id"))
	if !ok {
		http.Error(w, "invalid session_id", http.StatusBadRequest)
		return
	}

	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("chat ws upgrade failed", "error", err)
		return
	}
	conn := &wsConn{Conn: raw}
	defer conn.Close()

	assembler := svcctx.ChatFrom(r.Context())
	go drainPings(conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			conn.WriteJSON(chat.Frame{Type: "error", Data: "invalid message"})
			continue
		}

		err = assembler.Stream(r.Context(), sessionID, msg.Content, func(f chat.Frame) {
			if f.Type == "sources" {
				if sources, ok := f.Data.([]chat.Source); ok {
					f.Data = toDTOSources(sources)
				}
			}
			conn.WriteJSON(f)
		})
		if err != nil {
			conn.WriteJSON(chat.Frame{Type: "error", Data: err.Error()})
		}
	}
}

func toDTOSources(sources []chat.Source) []dto.Source {
	out := make([]dto.Source, len(sources))
	for i, s := range sources {
		out[i] = dto.Source{ChunkID: s.ChunkID, BookTitle: s.BookTitle, PageNumber: s.PageNumber, Snippet: s.Snippet}
	}
	return out
}

// drainPings sends a keepalive ping every pingInterval so intermediate
// proxies don't reap an otherwise-idle connection.
func drainPings(conn *wsConn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.ping(); err != nil {
			return
		}
	}
}
