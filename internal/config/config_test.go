package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.APIKey != "${OPENROUTER_API_KEY}" {
		t.Error("expected openrouter API key placeholder")
	}
	if cfg.Pipeline.ChunkSize != 512 || cfg.Pipeline.ChunkOverlap != 64 {
		t.Error("expected default chunk size/overlap")
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestConfig_GetAPIKey(t *testing.T) {
	os.Setenv("TEST_OPENROUTER_KEY", "or-key-123")
	defer os.Unsetenv("TEST_OPENROUTER_KEY")

	cfg := &Config{LLM: LLMConfig{APIKey: "${TEST_OPENROUTER_KEY}"}}
	if got := cfg.GetAPIKey(); got != "or-key-123" {
		t.Errorf("expected or-key-123, got %s", got)
	}

	cfg2 := &Config{LLM: LLMConfig{APIKey: "direct-key"}}
	if got := cfg2.GetAPIKey(); got != "direct-key" {
		t.Errorf("expected direct-key, got %s", got)
	}
}

func TestNewManager(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
database:
  url: "postgres://test/db"
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	cfg := mgr.Get()
	if cfg.Database.URL != "postgres://test/db" {
		t.Errorf("expected postgres://test/db, got %s", cfg.Database.URL)
	}
}

func TestManager_OnChange_Multiple(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte("database:\n  url: \"x\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})
	mgr.OnChange(func(cfg *Config) {})

	mgr.mu.RLock()
	if len(mgr.callbacks) != 3 {
		t.Errorf("expected 3 callbacks, got %d", len(mgr.callbacks))
	}
	mgr.mu.RUnlock()
}

func TestManager_Get_ThreadSafe(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte("database:\n  url: \"x\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				cfg := mgr.Get()
				_ = cfg.Database.URL
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestManager_WatchConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte("database:\n  url: \"initial\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	cfg := mgr.Get()
	if cfg.Database.URL != "initial" {
		t.Errorf("initial value mismatch: got %s", cfg.Database.URL)
	}

	var callbackCount atomic.Int32
	var lastValue atomic.Value

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastValue.Store(cfg.Database.URL)
	})

	mgr.WatchConfig()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configFile, []byte("database:\n  url: \"updated\"\n"), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Error("callback was not invoked after config file change")
	}

	newCfg := mgr.Get()
	if newCfg.Database.URL != "updated" {
		t.Errorf("config not updated: got %s", newCfg.Database.URL)
	}
	if v := lastValue.Load(); v != "updated" {
		t.Errorf("callback received wrong value: got %v", v)
	}
}

func TestManager_Update_PersistsAndNotifies(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configFile, []byte("pipeline:\n  chunk_size: 512\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var notified atomic.Int32
	mgr.OnChange(func(cfg *Config) { notified.Add(1) })

	updated, err := mgr.Update(configFile, func(cfg *Config) {
		cfg.Pipeline.ChunkSize = 1024
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Pipeline.ChunkSize != 1024 {
		t.Errorf("returned config ChunkSize = %d, want 1024", updated.Pipeline.ChunkSize)
	}
	if mgr.Get().Pipeline.ChunkSize != 1024 {
		t.Errorf("in-memory config not updated: got %d", mgr.Get().Pipeline.ChunkSize)
	}
	if notified.Load() != 1 {
		t.Errorf("expected OnChange to fire once, got %d", notified.Load())
	}

	persisted, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatalf("read persisted config: %v", err)
	}
	if !strings.Contains(string(persisted), "chunk_size: 1024") {
		t.Errorf("expected persisted file to contain the updated value, got:\n%s", persisted)
	}
}

func TestManager_Update_RejectsUnwritablePath(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configFile, []byte("pipeline:\n  chunk_size: 512\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	badPath := filepath.Join(tmpDir, "does-not-exist", "config.yaml")
	if _, err := mgr.Update(badPath, func(cfg *Config) {}); err == nil {
		t.Error("expected an error writing to a directory that doesn't exist")
	}
}
