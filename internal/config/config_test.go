package config

import (
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Bind == "" || cfg.Server.Port == 0 {
		t.Errorf("default server config incomplete: %+v", cfg.Server)
	}
	if cfg.Database.Path != "" {
		t.Errorf("default db path = %q, want empty (resolved at runtime)", cfg.Database.Path)
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Config{Server: ServerConfig{Bind: "0.0.0.0", Port: 9000}}
	if got := cfg.ListenAddr(); got != "0.0.0.0:9000" {
		t.Errorf("ListenAddr = %q, want 0.0.0.0:9000", got)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MARGIN_SERVER_PORT", "9123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9123 {
		t.Errorf("server.port = %d, want 9123 from env", cfg.Server.Port)
	}
	if cfg.Server.Bind != Default().Server.Bind {
		t.Errorf("server.bind = %q, want default", cfg.Server.Bind)
	}
}
