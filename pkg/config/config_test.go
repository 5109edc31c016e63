package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
env: "test"
database:
  host: "db.example.com"
  port: 5432
  user: "importer"
  database: "catalog_test"
ai:
  enabled: true
  model: "deepseek-chat"
  confidence_threshold: 0.6
import:
  similarity_threshold: 0.85
  default_series: "NOVO"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	os.Unsetenv("PGHOST")

	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AI_MODEL", "deepseek-reasoner")
	t.Setenv("IMPORT_SIMILARITY_THRESHOLD", "0.9")

	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}
	if cfg.AI.Model != "deepseek-reasoner" {
		t.Errorf("expected AI.Model=deepseek-reasoner (from env), got %s", cfg.AI.Model)
	}
	if cfg.Import.SimilarityThreshold != 0.9 {
		t.Errorf("expected SimilarityThreshold=0.9 (from env), got %v", cfg.Import.SimilarityThreshold)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("expected Database.Host from YAML, got %s", cfg.Database.Host)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
}

func TestLoad_RoundTripsMarshaledConfig(t *testing.T) {
	tmpDir := t.TempDir()

	want := Config{
		Env: "test",
		Database: DatabaseConfig{
			Host:           "db.internal",
			Port:           5433,
			User:           "importer",
			Database:       "catalog_rt",
			MaxConnections: 4,
			SSLMode:        "disable",
			MigrationsPath: "migrations",
		},
		AI: AIConfig{
			Enabled:             true,
			BaseURL:             "https://api.deepseek.com/v1",
			Model:               "deepseek-chat",
			MaxTokens:           2000,
			Temperature:         0.1,
			TimeoutSeconds:      30,
			RetryDelaySeconds:   1,
			ConfidenceThreshold: 0.6,
		},
		Import: ImportConfig{
			EnableQualityCheck:   true,
			SimilarityThreshold:  0.85,
			MaxUnknownAttributes: 15,
			DefaultSeries:        "NOVO",
		},
	}

	data, err := yaml.Marshal(&want)
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), data, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	os.Unsetenv("PGHOST")
	os.Unsetenv("ENVIRONMENT")

	cfg, err := Load("rt")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.Host != want.Database.Host {
		t.Errorf("expected Database.Host=%s, got %s", want.Database.Host, cfg.Database.Host)
	}
	if cfg.Database.Port != want.Database.Port {
		t.Errorf("expected Database.Port=%d, got %d", want.Database.Port, cfg.Database.Port)
	}
	if cfg.AI.ConfidenceThreshold != want.AI.ConfidenceThreshold {
		t.Errorf("expected ConfidenceThreshold=%v, got %v", want.AI.ConfidenceThreshold, cfg.AI.ConfidenceThreshold)
	}
	if cfg.Import.DefaultSeries != want.Import.DefaultSeries {
		t.Errorf("expected DefaultSeries=%s, got %s", want.Import.DefaultSeries, cfg.Import.DefaultSeries)
	}
}

func TestLoad_EnvOnlyWithoutConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	t.Setenv("PGDATABASE", "catalog_ci")
	t.Setenv("AI_ENABLED", "false")

	cfg, err := Load("dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.Database != "catalog_ci" {
		t.Errorf("expected PGDATABASE override, got %s", cfg.Database.Database)
	}
	if cfg.AI.Enabled {
		t.Error("expected AI.Enabled=false from env")
	}
	// Defaults apply when neither YAML nor env set a value.
	if cfg.Import.SimilarityThreshold != 0.85 {
		t.Errorf("expected default similarity threshold 0.85, got %v", cfg.Import.SimilarityThreshold)
	}
	if cfg.Import.MaxUnknownAttributes != 15 {
		t.Errorf("expected default max unknown attributes 15, got %d", cfg.Import.MaxUnknownAttributes)
	}
}

func TestLoad_RejectsInvalidThresholds(t *testing.T) {
	tmpDir := t.TempDir()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		os.Chdir(originalDir)
	})

	t.Setenv("IMPORT_SIMILARITY_THRESHOLD", "1.5")

	if _, err := Load("dev"); err == nil {
		t.Fatal("expected error for similarity threshold > 1")
	}
}

func TestAIConfig_IsAvailable(t *testing.T) {
	tests := []struct {
		name string
		cfg  AIConfig
		want bool
	}{
		{"enabled with key", AIConfig{Enabled: true, APIKey: "sk-test", BaseURL: "https://api.deepseek.com/v1"}, true},
		{"disabled", AIConfig{Enabled: false, APIKey: "sk-test", BaseURL: "https://api.deepseek.com/v1"}, false},
		{"missing key", AIConfig{Enabled: true, BaseURL: "https://api.deepseek.com/v1"}, false},
		{"missing base url", AIConfig{Enabled: true, APIKey: "sk-test"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsAvailable(); got != tt.want {
				t.Errorf("IsAvailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "catalog",
		Password: "secret",
		Database: "catalog_engine",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=catalog password=secret dbname=catalog_engine sslmode=disable"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}
