// Package dto holds the wire shapes internal/server/endpoints serialize
// to and from JSON. Kept separate from the domain types elsewhere so a
// response shape can change without touching persistence code.
package dto

import (
	"time"

	"github.com/google/uuid"
)

// Book is the /books wire representation.
type Book struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	Author             string    `json:"author"`
	ISBN               string    `json:"isbn"`
	Description        string    `json:"description"`
	Publisher          string    `json:"publisher"`
	PublishedDate      string    `json:"published_date"`
	Language           string    `json:"language"`
	PageCount          int       `json:"page_count"`
	CoverPath          string    `json:"cover_path"`
	Rating             *float32  `json:"rating,omitempty"`
	ProcessingStatus   string    `json:"processing_status"`
	ProcessingProgress int       `json:"processing_progress"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// SearchResult is one ranked hit from the hybrid retriever.
type SearchResult struct {
	ChunkID   uuid.UUID `json:"chunk_id"`
	BookID    uuid.UUID `json:"book_id"`
	BookTitle string    `json:"book_title"`
	Author    string    `json:"author"`
	Page      int       `json:"page"`
	Content   string    `json:"content"`
	Score     float64   `json:"score"`
}

// SearchResponse wraps a ranked result set with the query it answers.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// Insight is the /insights wire representation.
type Insight struct {
	ID              uuid.UUID `json:"id"`
	BookID          uuid.UUID `json:"book_id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	SupportingQuote string    `json:"supporting_quote"`
	Importance      int       `json:"importance"`
	RefinementLevel int       `json:"refinement_level"`
	CreatedAt       time.Time `json:"created_at"`
}

// InsightConnection is one edge returned by GET /insights/{id}/connections.
type InsightConnection struct {
	InsightID uuid.UUID `json:"insight_id"`
	BookID    uuid.UUID `json:"book_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
}

// ChatSession is the /chat/sessions wire representation.
type ChatSession struct {
	ID        uuid.UUID   `json:"id"`
	BookIDs   []uuid.UUID `json:"book_ids"`
	Title     string      `json:"title"`
	CreatedAt time.Time   `json:"created_at"`
}

// Source describes one chunk that contributed to an assistant reply.
type Source struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	BookTitle  string    `json:"book_title"`
	PageNumber int       `json:"page_number"`
	Snippet    string    `json:"snippet"`
}

// ChatMessage is one /chat/sessions/{id}/messages row.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedItem is the /feed wire representation.
type FeedItem struct {
	ID        uuid.UUID   `json:"id"`
	Type      string      `json:"type"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	BookIDs   []uuid.UUID `json:"book_ids"`
	IsRead    bool        `json:"is_read"`
	IsPinned  bool        `json:"is_pinned"`
	CreatedAt time.Time   `json:"created_at"`
}

// Topic is the /topics wire representation.
type Topic struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	BookCount int       `json:"book_count"`
}

// TopicGraphEdge is one /topics/graph relation.
type TopicGraphEdge struct {
	TopicA   uuid.UUID `json:"topic_a"`
	TopicB   uuid.UUID `json:"topic_b"`
	Type     string    `json:"type"`
	Strength float64   `json:"strength"`
}

// ReadingProgress is the /reading/progress/{id} wire representation.
type ReadingProgress struct {
	BookID      uuid.UUID  `json:"book_id"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
	Percent     float64    `json:"percent"`
	Completed   bool       `json:"completed"`
	SessionOpen bool       `json:"session_open"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// ReadingStats is the /reading/stats wire representation.
type ReadingStats struct {
	BooksReading   int `json:"books_reading"`
	BooksCompleted int `json:"books_completed"`
}

// KnowledgeNode is one book node in a /knowledge/map response.
type KnowledgeNode struct {
	BookID uuid.UUID `json:"book_id"`
	Title  string    `json:"title"`
	Author string    `json:"author"`
}

// KnowledgeEdge is one connection edge in a /knowledge/map response.
type KnowledgeEdge struct {
	Source      uuid.UUID `json:"source"`
	Target      uuid.UUID `json:"target"`
	Strength    float64   `json:"strength"`
	Description string    `json:"description"`
}

// KnowledgeMap is the full /knowledge/map response.
type KnowledgeMap struct {
	Nodes []KnowledgeNode `json:"nodes"`
	Edges []KnowledgeEdge `json:"edges"`
}

// KnowledgeConnection is one /knowledge/connections row.
type KnowledgeConnection struct {
	InsightAID    uuid.UUID `json:"insight_a_id"`
	InsightATitle string    `json:"insight_a_title"`
	BookAID       uuid.UUID `json:"book_a_id"`
	BookATitle    string    `json:"book_a_title"`
	InsightBID    uuid.UUID `json:"insight_b_id"`
	InsightBTitle string    `json:"insight_b_title"`
	BookBID       uuid.UUID `json:"book_b_id"`
	BookBTitle    string    `json:"book_b_title"`
	Strength      float64   `json:"strength"`
	Description   string    `json:"description"`
}

// ConfigResponse is the /config wire representation. The LLM API key is
// never serialized back to the client.
type ConfigResponse struct {
	Database struct {
		URL string `json:"url"`
	} `json:"database"`
	Storage struct {
		BooksPath  string `json:"books_path"`
		CoversPath string `json:"covers_path"`
	} `json:"storage"`
	LLM struct {
		Provider       string  `json:"provider"`
		BaseURL        string  `json:"base_url"`
		ChatModel      string  `json:"chat_model"`
		EmbeddingModel string  `json:"embedding_model"`
		EmbeddingDims  int     `json:"embedding_dimensions"`
		RateLimit      float64 `json:"rate_limit_per_second"`
	} `json:"llm"`
	Pipeline struct {
		ChunkSize             int    `json:"chunk_size"`
		ChunkOverlap          int    `json:"chunk_overlap"`
		RetrievalTopK         int    `json:"retrieval_top_k"`
		OrchestratorIntensity string `json:"orchestrator_intensity"`
	} `json:"pipeline"`
}

// ConfigPatchRequest is the PATCH /config request body. Nil fields leave
// the corresponding setting unchanged.
type ConfigPatchRequest struct {
	ChunkSize             *int    `json:"chunk_size,omitempty"`
	ChunkOverlap          *int    `json:"chunk_overlap,omitempty"`
	RetrievalTopK         *int    `json:"retrieval_top_k,omitempty"`
	OrchestratorIntensity *string `json:"orchestrator_intensity,omitempty"`
}

// ModelsResponse is the GET /config/models response: every chat model
// registered with the provider registry, plus the model currently
// selected for chat and embedding.
type ModelsResponse struct {
	AvailableChatModels []string `json:"available_chat_models"`
	ChatModel           string   `json:"chat_model"`
	EmbeddingModel      string   `json:"embedding_model"`
}

// ModelsPutRequest is the PUT /config/models request body.
type ModelsPutRequest struct {
	ChatModel      string `json:"chat_model"`
	EmbeddingModel string `json:"embedding_model"`
}

// ErrorResponse is the standard JSON error body for non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
