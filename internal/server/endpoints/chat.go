package endpoints

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/apperr"
	"github.com/alexmercer/bookbrain/internal/server/dto"
	"github.com/alexmercer/bookbrain/internal/svcctx"
)

type createChatSessionRequest struct {
	BookIDs []uuid.UUID `json:"book_ids"`
	Title   string      `json:"title"`
}

// ChatSessionsCreateEndpoint handles POST /chat/sessions.
type ChatSessionsCreateEndpoint struct{}

func (e *ChatSessionsCreateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/chat/sessions", e.handler
}
func (e *ChatSessionsCreateEndpoint) RequiresInit() bool { return true }

func (e *ChatSessionsCreateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req createChatSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	db := svcctx.DBFrom(r.Context())
	var session dto.ChatSession
	err := db.QueryRow(r.Context(), `
		INSERT INTO chat_sessions (book_ids, title)
		VALUES ($1, $2)
		RETURNING id, book_ids, title, created_at`,
		req.BookIDs, req.Title).Scan(&session.ID, &session.BookIDs, &session.Title, &session.CreatedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (e *ChatSessionsCreateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var title string
	var bookIDStrs []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a new chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var bookIDs []uuid.UUID
			for _, s := range bookIDStrs {
				id, err := uuid.Parse(s)
				if err != nil {
					return err
				}
				bookIDs = append(bookIDs, id)
			}
			var session dto.ChatSession
			req := createChatSessionRequest{BookIDs: bookIDs, Title: title}
			if err := client.Post(cmd.Context(), "/chat/sessions", req, &session); err != nil {
				return err
			}
			return api.Output(session)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "session title")
	cmd.Flags().StringSliceVar(&bookIDStrs, "book", nil, "book ID to scope the session to (repeatable)")
	return cmd
}

// ChatSessionsListEndpoint handles GET /chat/sessions.
type ChatSessionsListEndpoint struct{}

func (e *ChatSessionsListEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/chat/sessions", e.handler
}
func (e *ChatSessionsListEndpoint) RequiresInit() bool { return true }

func (e *ChatSessionsListEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	db := svcctx.DBFrom(r.Context())
	rows, err := db.Query(r.Context(), `SELECT id, book_ids, title, created_at FROM chat_sessions ORDER BY created_at DESC`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	sessions := []dto.ChatSession{}
	for rows.Next() {
		var s dto.ChatSession
		if err := rows.Scan(&s.ID, &s.BookIDs, &s.Title, &s.CreatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		sessions = append(sessions, s)
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (e *ChatSessionsListEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List chat sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var sessions []dto.ChatSession
			if err := client.Get(cmd.Context(), "/chat/sessions", &sessions); err != nil {
				return err
			}
			return api.Output(sessions)
		},
	}
}

// ChatMessagesListEndpoint handles GET /chat/sessions/{sid}/messages.
type ChatMessagesListEndpoint struct{}

func (e *ChatMessagesListEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/chat/sessions/{sid}/messages", e.handler
}
func (e *ChatMessagesListEndpoint) RequiresInit() bool { return true }

func (e *ChatMessagesListEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sid, ok := pathUUID(w, r, "sid")
	if !ok {
		return
	}
	db := svcctx.DBFrom(r.Context())
	rows, err := db.Query(r.Context(), `
		SELECT id, role, content, created_at FROM chat_messages
		WHERE session_id = $1 ORDER BY created_at`, sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	messages := []dto.ChatMessage{}
	for rows.Next() {
		var m dto.ChatMessage
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		messages = append(messages, m)
	}
	writeJSON(w, http.StatusOK, messages)
}

func (e *ChatMessagesListEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "messages <session_id>",
		Short: "List a chat session's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var messages []dto.ChatMessage
			if err := client.Get(cmd.Context(), "/chat/sessions/"+args[0]+"/messages", &messages); err != nil {
				return err
			}
			return api.Output(messages)
		},
	}
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type sendMessageResponse struct {
	Content string       `json:"content"`
	Sources []dto.Source `json:"sources"`
}

// ChatMessagesCreateEndpoint handles POST /chat/sessions/{sid}/messages:
// the non-streaming counterpart to /ws/chat/{session_id}, used by clients
// that don't need token-by-token delivery.
type ChatMessagesCreateEndpoint struct{}

func (e *ChatMessagesCreateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/chat/sessions/{sid}/messages", e.handler
}
func (e *ChatMessagesCreateEndpoint) RequiresInit() bool { return true }

func (e *ChatMessagesCreateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sid, ok := pathUUID(w, r, "sid")
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil || req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	assembler := svcctx.ChatFrom(r.Context())
	if assembler == nil {
		writeError(w, http.StatusServiceUnavailable, "chat assembler not initialized")
		return
	}
	reply, sources, err := assembler.Send(r.Context(), sid, req.Content)
	if err == pgx.ErrNoRows {
		writeAppErr(w, apperr.NotFound("chat session not found", nil))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]dto.Source, 0, len(sources))
	for _, s := range sources {
		out = append(out, dto.Source{ChunkID: s.ChunkID, BookTitle: s.BookTitle, PageNumber: s.PageNumber, Snippet: s.Snippet})
	}
	writeJSON(w, http.StatusOK, sendMessageResponse{Content: reply, Sources: out})
}

func (e *ChatMessagesCreateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "send <session_id> <message>",
		Short: "Send a chat message and print the assistant's reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp sendMessageResponse
			req := sendMessageRequest{Content: args[1]}
			if err := client.Post(cmd.Context(), "/chat/sessions/"+args[0]+"/messages", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
