package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadConfigDefaults(t *testing.T) {
	writeConfig(t, `
http:
  addr: ":8080"
`)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Service != "signaling-service" || cfg.Logging.Env != "dev" {
		t.Fatalf("logging defaults not applied: %+v", cfg.Logging)
	}
	if cfg.IdleAfter() != 5*time.Minute {
		t.Fatalf("idleAfter default = %v", cfg.IdleAfter())
	}
	if cfg.SweepEvery() != time.Minute {
		t.Fatalf("sweepEvery default = %v", cfg.SweepEvery())
	}
}

func TestLoadConfigFull(t *testing.T) {
	writeConfig(t, `
http:
  addr: ":9090"
logging:
  env: "prod"
  backend: "zap"
room:
  idleAfter: "2m"
  sweepEvery: "30s"
banlist:
  ips: ["10.0.0.5"]
  peerIDs: ["spammer_1"]
`)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" || cfg.Logging.Backend != "zap" {
		t.Fatalf("values not read: %+v", cfg)
	}
	if cfg.IdleAfter() != 2*time.Minute || cfg.SweepEvery() != 30*time.Second {
		t.Fatalf("durations: %v / %v", cfg.IdleAfter(), cfg.SweepEvery())
	}
	if len(cfg.BanList.IPs) != 1 || cfg.BanList.PeerIDs[0] != "spammer_1" {
		t.Fatalf("banlist not read: %+v", cfg.BanList)
	}
}

func TestLoadConfigRequiresAddr(t *testing.T) {
	writeConfig(t, `
logging:
  env: "dev"
`)
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing http.addr")
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	writeConfig(t, `
http:
  addr: ":8080"
room:
  idleAfter: "soon"
`)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// невалидная длительность — тихий откат к дефолту
	if cfg.IdleAfter() != 5*time.Minute {
		t.Fatalf("bad duration should fall back, got %v", cfg.IdleAfter())
	}
}
