package config

// Config holds the full application configuration.
// Stored at: {home}/config.yaml, overridable by BOOKVAULT_* env vars.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

// DatabaseConfig points at the Postgres instance (with pgvector installed).
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// RedisConfig points at the Redis instance backing work-unit queues.
type RedisConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// StorageConfig controls where ingested files and covers live on disk.
type StorageConfig struct {
	BooksPath  string `mapstructure:"books_path" yaml:"books_path"`
	CoversPath string `mapstructure:"covers_path" yaml:"covers_path"`
}

// LLMConfig configures the opaque LLM/embedding/metadata capability clients.
type LLMConfig struct {
	// Provider selects the wire protocol; currently only "openai-compatible"
	// is implemented (OpenRouter, OpenAI, or any compatible gateway).
	Provider        string  `mapstructure:"provider" yaml:"provider"`
	BaseURL         string  `mapstructure:"base_url" yaml:"base_url"`
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	ChatModel       string  `mapstructure:"chat_model" yaml:"chat_model"`
	EmbeddingModel  string  `mapstructure:"embedding_model" yaml:"embedding_model"`
	EmbeddingDims   int     `mapstructure:"embedding_dimensions" yaml:"embedding_dimensions"`
	RateLimitPerSec float64 `mapstructure:"rate_limit_per_second" yaml:"rate_limit_per_second"`
}

// PipelineConfig tunes the chunker and orchestrator defaults.
type PipelineConfig struct {
	ChunkSize              int    `mapstructure:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap           int    `mapstructure:"chunk_overlap" yaml:"chunk_overlap"`
	RetrievalTopK          int    `mapstructure:"retrieval_top_k" yaml:"retrieval_top_k"`
	OrchestratorIntensity  string `mapstructure:"orchestrator_intensity" yaml:"orchestrator_intensity"`
	ProcessingQueueWorkers int    `mapstructure:"processing_queue_workers" yaml:"processing_queue_workers"`
	EmbeddingQueueWorkers  int    `mapstructure:"embedding_queue_workers" yaml:"embedding_queue_workers"`
	LLMQueueWorkers        int    `mapstructure:"llm_queue_workers" yaml:"llm_queue_workers"`
}

// ServerConfig controls the HTTP/WebSocket listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// GetAPIKey resolves ${ENV_VAR} references in the configured LLM API key.
func (c *Config) GetAPIKey() string {
	return ResolveEnvVars(c.LLM.APIKey)
}
