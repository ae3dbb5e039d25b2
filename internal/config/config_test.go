package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("missing postgres url fails", func(t *testing.T) {
		t.Setenv("CANTEEN_POSTGRES_URL", "")
		if _, err := Load(""); err == nil {
			t.Fatal("expected an error without a postgres url")
		}
	})

	t.Run("defaults apply", func(t *testing.T) {
		t.Setenv("CANTEEN_POSTGRES_URL", "postgres://localhost/canteen")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
		}
		if cfg.Server.ReadTimeout != 10*time.Second {
			t.Errorf("expected default read timeout 10s, got %s", cfg.Server.ReadTimeout)
		}
		if cfg.Gateway.BaseURL != "https://api.cashfree.com/pg" {
			t.Errorf("unexpected default gateway url: %s", cfg.Gateway.BaseURL)
		}
		if len(cfg.Kafka.Brokers) != 0 {
			t.Errorf("expected no default brokers, got %v", cfg.Kafka.Brokers)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("CANTEEN_POSTGRES_URL", "postgres://localhost/canteen")
		t.Setenv("CANTEEN_SERVER_PORT", "9090")
		t.Setenv("CANTEEN_GATEWAY_CLIENT_ID", "client-1")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("expected port 9090, got %s", cfg.Server.Port)
		}
		if cfg.Gateway.ClientID != "client-1" {
			t.Errorf("expected client id client-1, got %s", cfg.Gateway.ClientID)
		}
	})

	t.Run("reads a yaml file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "canteen.yaml")
		content := []byte("postgres:\n  url: postgres://filehost/canteen\nserver:\n  port: \"7070\"\n")
		if err := os.WriteFile(path, content, 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Postgres.URL != "postgres://filehost/canteen" {
			t.Errorf("unexpected postgres url: %s", cfg.Postgres.URL)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("expected port 7070, got %s", cfg.Server.Port)
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		t.Setenv("CANTEEN_POSTGRES_URL", "postgres://localhost/canteen")

		if _, err := Load("/no/such/file.yaml"); err == nil {
			t.Fatal("expected an error for a missing config file")
		}
	})
}
