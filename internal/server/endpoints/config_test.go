package endpoints

import (
	"testing"

	"github.com/alexmercer/bookbrain/internal/config"
)

func TestConfigToDTOCopiesEveryField(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: "postgres://localhost/bookbrain"},
		Storage: config.StorageConfig{
			BooksPath:  "/books",
			CoversPath: "/covers",
		},
		LLM: config.LLMConfig{
			Provider:        "openai-compatible",
			BaseURL:         "https://api.example.com",
			ChatModel:       "gpt-4o",
			EmbeddingModel:  "text-embedding-3-small",
			EmbeddingDims:   1536,
			RateLimitPerSec: 2.5,
		},
		Pipeline: config.PipelineConfig{
			ChunkSize:             512,
			ChunkOverlap:          64,
			RetrievalTopK:         8,
			OrchestratorIntensity: "normal",
		},
	}

	out := configToDTO(cfg)

	if out.Database.URL != cfg.Database.URL {
		t.Errorf("Database.URL = %q, want %q", out.Database.URL, cfg.Database.URL)
	}
	if out.Storage.BooksPath != cfg.Storage.BooksPath || out.Storage.CoversPath != cfg.Storage.CoversPath {
		t.Errorf("Storage = %+v, want %+v", out.Storage, cfg.Storage)
	}
	if out.LLM.Provider != cfg.LLM.Provider || out.LLM.BaseURL != cfg.LLM.BaseURL ||
		out.LLM.ChatModel != cfg.LLM.ChatModel || out.LLM.EmbeddingModel != cfg.LLM.EmbeddingModel ||
		out.LLM.EmbeddingDims != cfg.LLM.EmbeddingDims || out.LLM.RateLimit != cfg.LLM.RateLimitPerSec {
		t.Errorf("LLM = %+v, want fields copied from %+v", out.LLM, cfg.LLM)
	}
	if out.Pipeline.ChunkSize != cfg.Pipeline.ChunkSize || out.Pipeline.ChunkOverlap != cfg.Pipeline.ChunkOverlap ||
		out.Pipeline.RetrievalTopK != cfg.Pipeline.RetrievalTopK ||
		out.Pipeline.OrchestratorIntensity != cfg.Pipeline.OrchestratorIntensity {
		t.Errorf("Pipeline = %+v, want fields copied from %+v", out.Pipeline, cfg.Pipeline)
	}
}
