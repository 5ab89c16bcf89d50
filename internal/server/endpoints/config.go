package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/alexmercer/bookbrain/internal/api"
	"github.com/alexmercer/bookbrain/internal/config"
	"github.com/alexmercer/bookbrain/internal/server/dto"
	"github.com/alexmercer/bookbrain/internal/svcctx"
)

func configToDTO(cfg *config.Config) dto.ConfigResponse {
	var out dto.ConfigResponse
	out.Database.URL = cfg.Database.URL
	out.Storage.BooksPath = cfg.Storage.BooksPath
	out.Storage.CoversPath = cfg.Storage.CoversPath
	out.LLM.Provider = cfg.LLM.Provider
	out.LLM.BaseURL = cfg.LLM.BaseURL
	out.LLM.ChatModel = cfg.LLM.ChatModel
	out.LLM.EmbeddingModel = cfg.LLM.EmbeddingModel
	out.LLM.EmbeddingDims = cfg.LLM.EmbeddingDims
	out.LLM.RateLimit = cfg.LLM.RateLimitPerSec
	out.Pipeline.ChunkSize = cfg.Pipeline.ChunkSize
	out.Pipeline.ChunkOverlap = cfg.Pipeline.ChunkOverlap
	out.Pipeline.RetrievalTopK = cfg.Pipeline.RetrievalTopK
	out.Pipeline.OrchestratorIntensity = cfg.Pipeline.OrchestratorIntensity
	return out
}

// ConfigGetEndpoint handles GET /config.
type ConfigGetEndpoint struct{}

func (e *ConfigGetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/config", e.handler
}
func (e *ConfigGetEndpoint) RequiresInit() bool { return true }

func (e *ConfigGetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	mgr := svcctx.ConfigFrom(r.Context())
	if mgr == nil {
		writeError(w, http.StatusServiceUnavailable, "config manager not initialized")
		return
	}
	writeJSON(w, http.StatusOK, configToDTO(mgr.Get()))
}

func (e *ConfigGetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var cfg dto.ConfigResponse
			if err := client.Get(cmd.Context(), "/config", &cfg); err != nil {
				return err
			}
			return api.Output(cfg)
		},
	}
}

// ConfigPatchEndpoint handles PATCH /config.
type ConfigPatchEndpoint struct{}

func (e *ConfigPatchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/config", e.handler
}
func (e *ConfigPatchEndpoint) RequiresInit() bool { return true }

func (e *ConfigPatchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfigPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mgr := svcctx.ConfigFrom(r.Context())
	home := svcctx.HomeFrom(r.Context())
	if mgr == nil || home == nil {
		writeError(w, http.StatusServiceUnavailable, "config manager not initialized")
		return
	}

	cfg, err := mgr.Update(home.ConfigPath(), func(c *config.Config) {
		if req.ChunkSize != nil {
			c.Pipeline.ChunkSize = *req.ChunkSize
		}
		if req.ChunkOverlap != nil {
			c.Pipeline.ChunkOverlap = *req.ChunkOverlap
		}
		if req.RetrievalTopK != nil {
			c.Pipeline.RetrievalTopK = *req.RetrievalTopK
		}
		if req.OrchestratorIntensity != nil {
			c.Pipeline.OrchestratorIntensity = *req.OrchestratorIntensity
		}
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, configToDTO(cfg))
}

func (e *ConfigPatchEndpoint) Command(getServerURL func() string) *cobra.Command {
	var chunkSize, chunkOverlap, topK int
	var intensity string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update pipeline configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := dto.ConfigPatchRequest{}
			if cmd.Flags().Changed("chunk-size") {
				req.ChunkSize = &chunkSize
			}
			if cmd.Flags().Changed("chunk-overlap") {
				req.ChunkOverlap = &chunkOverlap
			}
			if cmd.Flags().Changed("retrieval-top-k") {
				req.RetrievalTopK = &topK
			}
			if cmd.Flags().Changed("orchestrator-intensity") {
				req.OrchestratorIntensity = &intensity
			}
			var cfg dto.ConfigResponse
			if err := client.Patch(cmd.Context(), "/config", req, &cfg); err != nil {
				return err
			}
			return api.Output(cfg)
		},
	}
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "chunk size in tokens")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 0, "chunk overlap in tokens")
	cmd.Flags().IntVar(&topK, "retrieval-top-k", 0, "retrieval result count")
	cmd.Flags().StringVar(&intensity, "orchestrator-intensity", "", "orchestrator intensity")
	return cmd
}

// ConfigModelsGetEndpoint handles GET /config/models.
type ConfigModelsGetEndpoint struct{}

func (e *ConfigModelsGetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/config/models", e.handler
}
func (e *ConfigModelsGetEndpoint) RequiresInit() bool { return true }

func (e *ConfigModelsGetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	mgr := svcctx.ConfigFrom(r.Context())
	registry := svcctx.RegistryFrom(r.Context())
	if mgr == nil || registry == nil {
		writeError(w, http.StatusServiceUnavailable, "config not initialized")
		return
	}
	cfg := mgr.Get()
	writeJSON(w, http.StatusOK, dto.ModelsResponse{
		AvailableChatModels: registry.ListLLM(),
		ChatModel:           cfg.LLM.ChatModel,
		EmbeddingModel:      cfg.LLM.EmbeddingModel,
	})
}

func (e *ConfigModelsGetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available and selected models",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var out dto.ModelsResponse
			if err := client.Get(cmd.Context(), "/config/models", &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
}

// ConfigModelsPutEndpoint handles PUT /config/models.
type ConfigModelsPutEndpoint struct{}

func (e *ConfigModelsPutEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/config/models", e.handler
}
func (e *ConfigModelsPutEndpoint) RequiresInit() bool { return true }

func (e *ConfigModelsPutEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req dto.ModelsPutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mgr := svcctx.ConfigFrom(r.Context())
	home := svcctx.HomeFrom(r.Context())
	registry := svcctx.RegistryFrom(r.Context())
	if mgr == nil || home == nil || registry == nil {
		writeError(w, http.StatusServiceUnavailable, "config not initialized")
		return
	}
	if req.ChatModel != "" {
		if _, err := registry.GetLLM(req.ChatModel); err != nil {
			writeError(w, http.StatusBadRequest, "unknown chat model: "+req.ChatModel)
			return
		}
	}

	cfg, err := mgr.Update(home.ConfigPath(), func(c *config.Config) {
		if req.ChatModel != "" {
			c.LLM.ChatModel = req.ChatModel
		}
		if req.EmbeddingModel != "" {
			c.LLM.EmbeddingModel = req.EmbeddingModel
		}
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dto.ModelsResponse{
		AvailableChatModels: registry.ListLLM(),
		ChatModel:           cfg.LLM.ChatModel,
		EmbeddingModel:      cfg.LLM.EmbeddingModel,
	})
}

func (e *ConfigModelsPutEndpoint) Command(getServerURL func() string) *cobra.Command {
	var chatModel, embeddingModel string
	cmd := &cobra.Command{
		Use:   "set-models",
		Short: "Select chat and embedding models",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := dto.ModelsPutRequest{ChatModel: chatModel, EmbeddingModel: embeddingModel}
			var out dto.ModelsResponse
			if err := client.Put(cmd.Context(), "/config/models", req, &out); err != nil {
				return err
			}
			return api.Output(out)
		},
	}
	cmd.Flags().StringVar(&chatModel, "chat-model", "", "chat model name")
	cmd.Flags().StringVar(&embeddingModel, "embedding-model", "", "embedding model name")
	return cmd
}
