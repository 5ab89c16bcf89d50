package providers

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Sentinel errors for the providers package.
var (
	ErrLLMNotFound      = errors.New("LLM client not found")
	ErrEmbeddingMissing = errors.New("embedding client not configured")
	ErrMetadataMissing  = errors.New("metadata client not configured")
)

// Registry holds references to the process's external-capability clients.
// Callers never construct an LLMClient/EmbeddingClient/MetadataClient
// themselves; they look it up here. Safe for concurrent use and for
// hot-reload via Reload.
type Registry struct {
	mu         sync.RWMutex
	llmClients map[string]LLMClient
	embedder   EmbeddingClient
	metadata   MetadataClient
	logger     *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients: make(map[string]LLMClient),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client under a name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// GetLLM returns a named LLM client, or the sole registered one if name
// is empty and exactly one is registered.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		if len(r.llmClients) == 1 {
			for _, c := range r.llmClients {
				return c, nil
			}
		}
		name = "default"
	}
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLLMNotFound, name)
	}
	return client, nil
}

// ListLLM returns all registered LLM client names.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	return names
}

// SetEmbedder registers the process-wide embedding client.
func (r *Registry) SetEmbedder(c EmbeddingClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embedder = c
}

// Embedder returns the registered embedding client.
func (r *Registry) Embedder() (EmbeddingClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.embedder == nil {
		return nil, ErrEmbeddingMissing
	}
	return r.embedder, nil
}

// SetMetadata registers the process-wide metadata client.
func (r *Registry) SetMetadata(c MetadataClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata = c
}

// Metadata returns the registered metadata client.
func (r *Registry) Metadata() (MetadataClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.metadata == nil {
		return nil, ErrMetadataMissing
	}
	return r.metadata, nil
}
