package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Fatalf("expected default port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Chat.CacheTTL != 10*time.Minute {
		t.Fatalf("unexpected default cache ttl: %v", cfg.Chat.CacheTTL)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 8081
mysql:
  dsn: "user:pass@tcp(db:3306)/dekor?parseTime=true"
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  topic: "stock-events"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8081 {
		t.Fatalf("expected port 8081, got %d", cfg.Server.Port)
	}
	if cfg.MySQL.DSN != "user:pass@tcp(db:3306)/dekor?parseTime=true" {
		t.Fatalf("unexpected dsn: %s", cfg.MySQL.DSN)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Topic != "stock-events" {
		t.Fatalf("unexpected kafka config: %+v", cfg.Kafka)
	}
	// 文件没写的段保持默认
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("expected default redis addr, got %s", cfg.Redis.Addr)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MYSQL_DSN", "env-dsn")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("CHAT_API_KEY", "sk-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected env port 9090, got %d", cfg.Server.Port)
	}
	if cfg.MySQL.DSN != "env-dsn" {
		t.Fatalf("expected env dsn, got %s", cfg.MySQL.DSN)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("expected kafka enabled via env, got %+v", cfg.Kafka)
	}
	if cfg.Chat.APIKey != "sk-env" {
		t.Fatalf("expected env api key, got %s", cfg.Chat.APIKey)
	}
}
