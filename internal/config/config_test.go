package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:       HTTPConfig{Port: 3001},
		Database:   DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Embedding:  EmbeddingConfig{APIKey: "test-key"},
		Completion: CompletionConfig{APIKey: "test-key"},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingProviderKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding api key")
	}

	cfg = validConfig()
	cfg.Completion.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing completion api key")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("unexpected embedding model: %s", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Completion.Model != "gpt-4o-mini" {
		t.Errorf("unexpected completion model: %s", cfg.Completion.Model)
	}
	if cfg.Index.Collection != "campusqa_vectors" {
		t.Errorf("unexpected collection name: %s", cfg.Index.Collection)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.History.Path != "data/history.db" {
		t.Errorf("unexpected history path: %s", cfg.History.Path)
	}
	if cfg.History.PersistTimeoutSec != 5 {
		t.Errorf("expected PersistTimeoutSec=5, got %d", cfg.History.PersistTimeoutSec)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ASKD_TEST_KEY", "secret")

	in := []byte("api_key: ${ASKD_TEST_KEY}\nmodel: ${ASKD_TEST_MODEL:-gpt-4o-mini}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nmodel: gpt-4o-mini\n"
	if out != want {
		t.Errorf("unexpected expansion:\ngot:  %q\nwant: %q", out, want)
	}
}

func TestExpandEnvVars_SetOverridesDefault(t *testing.T) {
	t.Setenv("ASKD_TEST_MODEL", "gpt-4o")

	out := string(expandEnvVars([]byte("${ASKD_TEST_MODEL:-gpt-4o-mini}")))
	if out != "gpt-4o" {
		t.Errorf("expected set variable to win over default, got %q", out)
	}
}

func TestGetEnv_Default(t *testing.T) {
	old := os.Getenv("ENV")
	defer os.Setenv("ENV", old)
	os.Unsetenv("ENV")

	if env := GetEnv(); env != "local" {
		t.Errorf("expected default env local, got %s", env)
	}
}
