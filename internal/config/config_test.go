package config

import (
	"log/slog"
	"slices"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 || cfg.StoreDriver != "sqlite" {
		t.Errorf("unexpected defaults: port %d driver %s", cfg.Port, cfg.StoreDriver)
	}
	if cfg.DSN() != cfg.SQLitePath {
		t.Errorf("expected sqlite dsn %s, got %s", cfg.SQLitePath, cfg.DSN())
	}
	if cfg.PasteOffset != 10 || cfg.AutosaveSpec != "@every 30s" {
		t.Errorf("unexpected engine defaults: offset %v autosave %q", cfg.PasteOffset, cfg.AutosaveSpec)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://db/equipdraw")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DSN() != "postgres://db/equipdraw" {
		t.Errorf("expected postgres dsn, got %s", cfg.DSN())
	}
	if !slices.Equal(cfg.AllowedOrigins, []string{"https://a.test", "https://b.test"}) {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if l, _ := cfg.Level(); l != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", l)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"driver", "STORE_DRIVER", "mysql"},
		{"log level", "LOG_LEVEL", "loud"},
		{"port", "PORT", "eighty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
