// Package chat assembles retrieval-augmented conversations: it persists
// messages, pulls context via internal/retrieval, and drives the LLM
// through internal/providers in both single-shot and streaming form.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexmercer/bookbrain/internal/providers"
	"github.com/alexmercer/bookbrain/internal/retrieval"
)

const (
	searchLimit     = 8
	historyMessages = 10
	snippetLen      = 200
)

const chatSystem = `You are a reading companion with access to the user's personal book library. ` +
	`Answer using the provided context when it's relevant; say so plainly when it isn't.`

const chatWithContextTemplate = "Context from the user's library:\n{context}\n\nQuestion: {question}"

// Source describes one chunk that contributed to an assistant reply.
type Source struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	BookTitle  string    `json:"book_title"`
	PageNumber int       `json:"page_number"`
	Snippet    string    `json:"snippet"`
}

// Frame is one event in a streamed reply.
type Frame struct {
	Type string `json:"type"` // "content" | "sources" | "done"
	Data any    `json:"data"`
}

// Assembler drives RAG chat turns.
type Assembler struct {
	db        *pgxpool.Pool
	retriever *retrieval.Retriever
	llm       providers.LLMClient
}

// New builds an Assembler.
func New(db *pgxpool.Pool, retriever *retrieval.Retriever, llm providers.LLMClient) *Assembler {
	return &Assembler{db: db, retriever: retriever, llm: llm}
}

// Send runs one non-streaming turn: persist the user message, retrieve
// context, call the LLM once, persist and return the assistant message.
func (a *Assembler) Send(ctx context.Context, sessionID uuid.UUID, userText string) (string, []Source, error) {
	messages, sources, err := a.prepareTurn(ctx, sessionID, userText)
	if err != nil {
		return "", nil, err
	}

	result, err := a.llm.Chat(ctx, &providers.ChatRequest{Messages: messages})
	if err != nil {
		return "", nil, fmt.Errorf("chat completion: %w", err)
	}

	if _, err := a.persistAssistantMessage(ctx, sessionID, result.Content, sources); err != nil {
		return "", nil, err
	}
	return result.Content, sources, nil
}

// Stream runs one streaming turn, emitting content deltas as they
// arrive and a final sources/done pair once the reply is persisted.
func (a *Assembler) Stream(ctx context.Context, sessionID uuid.UUID, userText string, emit func(Frame)) error {
	messages, sources, err := a.prepareTurn(ctx, sessionID, userText)
	if err != nil {
		return err
	}

	result, err := a.llm.Stream(ctx, &providers.ChatRequest{Messages: messages}, func(delta string) {
		emit(Frame{Type: "content", Data: delta})
	})
	if err != nil {
		return fmt.Errorf("chat stream: %w", err)
	}

	messageID, err := a.persistAssistantMessage(ctx, sessionID, result.Content, sources)
	if err != nil {
		return err
	}

	emit(Frame{Type: "sources", Data: sources})
	emit(Frame{Type: "done", Data: map[string]uuid.UUID{"message_id": messageID}})
	return nil
}

// prepareTurn does the work shared by Send and Stream: persist the user
// message, retrieve context, and assemble the message list.
func (a *Assembler) prepareTurn(ctx context.Context, sessionID uuid.UUID, userText string) ([]providers.Message, []Source, error) {
	bookFilter, err := a.sessionBookIDs(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := a.insertMessage(ctx, sessionID, "user", userText, nil); err != nil {
		return nil, nil, fmt.Errorf("persist user message: %w", err)
	}

	chunks, err := a.retriever.Search(ctx, userText, searchLimit, bookFilter)
	if err != nil {
		// A retrieval miss degrades to contextless chat rather than failing
		// the turn outright.
		chunks = nil
	}

	contextText := buildContext(chunks)
	sources := buildSources(chunks)

	prior, err := a.priorMessages(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	userTurn := renderTemplate(chatWithContextTemplate, contextText, userText)
	messages := make([]providers.Message, 0, len(prior)+2)
	messages = append(messages, providers.Message{Role: "system", Content: chatSystem})
	messages = append(messages, prior...)
	messages = append(messages, providers.Message{Role: "user", Content: userTurn})
	return messages, sources, nil
}

func buildContext(chunks []retrieval.Chunk) string {
	if len(chunks) == 0 {
		return "No relevant content found."
	}
	entries := make([]string, len(chunks))
	for i, c := range chunks {
		entries[i] = fmt.Sprintf("[%s - p.%d]\n%s", c.BookTitle, c.Page, c.Content)
	}
	return strings.Join(entries, "\n\n---\n\n")
}

func buildSources(chunks []retrieval.Chunk) []Source {
	sources := make([]Source, len(chunks))
	for i, c := range chunks {
		snippet := c.Content
		if len(snippet) > snippetLen {
			snippet = snippet[:snippetLen]
		}
		sources[i] = Source{ChunkID: c.ChunkID, BookTitle: c.BookTitle, PageNumber: c.Page, Snippet: snippet}
	}
	return sources
}

func renderTemplate(template, context, question string) string {
	r := strings.NewReplacer("{context}", context, "{question}", question)
	return r.Replace(template)
}

func (a *Assembler) sessionBookIDs(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := a.db.QueryRow(ctx, `SELECT book_ids FROM chat_sessions WHERE id = $1`, sessionID).Scan(&ids); err != nil {
		return nil, fmt.Errorf("load session book_ids: %w", err)
	}
	return ids, nil
}

// priorMessages returns the last 10 messages of the session, oldest
// first, excluding the just-inserted user row.
func (a *Assembler) priorMessages(ctx context.Context, sessionID uuid.UUID) ([]providers.Message, error) {
	rows, err := a.db.Query(ctx, `
		SELECT role, content FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at DESC
		OFFSET 1 LIMIT $2`, sessionID, historyMessages)
	if err != nil {
		return nil, fmt.Errorf("load prior messages: %w", err)
	}
	defer rows.Close()

	var reversed []providers.Message
	for rows.Next() {
		var m providers.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan prior message: %w", err)
		}
		reversed = append(reversed, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	messages := make([]providers.Message, len(reversed))
	for i, m := range reversed {
		messages[len(reversed)-1-i] = m
	}
	return messages, nil
}

func (a *Assembler) insertMessage(ctx context.Context, sessionID uuid.UUID, role, content string, sources []Source) (uuid.UUID, error) {
	raw, err := json.Marshal(sourcesOrEmpty(sources))
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal source_chunks: %w", err)
	}
	var id uuid.UUID
	err = a.db.QueryRow(ctx, `
		INSERT INTO chat_messages (session_id, role, content, source_chunks)
		VALUES ($1, $2, $3, $4) RETURNING id`, sessionID, role, content, raw).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert %s message: %w", role, err)
	}
	return id, nil
}

func (a *Assembler) persistAssistantMessage(ctx context.Context, sessionID uuid.UUID, content string, sources []Source) (uuid.UUID, error) {
	return a.insertMessage(ctx, sessionID, "assistant", content, sources)
}

func sourcesOrEmpty(sources []Source) []Source {
	if sources == nil {
		return []Source{}
	}
	return sources
}
