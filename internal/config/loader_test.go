package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ADEPT_ROOT", root)
	return root
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	root := writeConfig(t, `
http:
  listen_addr: ":9090"
database:
  global_dsn: "adept:%s@tcp(127.0.0.1:3306)/adept?parseTime=true"
  global_password: "vault:secret/adept/db#password"
negotiation:
  idle_ttl: 90s
`)
	t.Setenv("ADEPT_SEQUENCE__DRIVER", "redis")
	t.Setenv("ADEPT_SEQUENCE__REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("ADEPT_NEGOTIATION__MAX_ENTRIES", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.Root != root {
		t.Fatalf("root = %q", cfg.Paths.Root)
	}
	if cfg.HTTP.ListenAddr != ":9090" || cfg.HTTP.BasePath != "/" {
		t.Fatalf("http = %+v", cfg.HTTP)
	}
	if cfg.Sequence.Driver != "redis" || cfg.Sequence.RedisAddr != "127.0.0.1:6379" {
		t.Fatalf("sequence = %+v", cfg.Sequence)
	}
	if cfg.Negotiation.IdleTTL != 90*time.Second || cfg.Negotiation.MaxEntries != 50 ||
		cfg.Negotiation.MaxAge != time.Minute {
		t.Fatalf("negotiation = %+v", cfg.Negotiation)
	}
	if cfg.Health.Timeout != 5*time.Second {
		t.Fatalf("health timeout = %v", cfg.Health.Timeout)
	}
	if Get() != cfg {
		t.Fatal("Get did not return the loaded config")
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := map[string]string{
		"missing dsn": `
http:
  listen_addr: ":8080"
`,
		"two verbs": `
database:
  global_dsn: "%s:%s@tcp(db)/adept"
`,
		"redis without addr": `
database:
  global_dsn: "adept@tcp(db)/adept"
sequence:
  driver: redis
`,
		"unknown driver": `
database:
  global_dsn: "adept@tcp(db)/adept"
sequence:
  driver: etcd
`,
	}
	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			writeConfig(t, yaml)
			if _, err := Load(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoad_ConfigFileOverride(t *testing.T) {
	writeConfig(t, `
database:
  global_dsn: "adept@tcp(db)/adept"
`)
	alt := filepath.Join(t.TempDir(), "alt.yaml")
	if err := os.WriteFile(alt, []byte(`
http:
  listen_addr: ":7070"
database:
  global_dsn: "adept@tcp(db)/adept"
`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ADEPT_CONFIG", alt)
	t.Setenv("ADEPT_NEGOTIATION__MAX_AGE", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":7070" {
		t.Fatalf("listen_addr = %q, want the ADEPT_CONFIG file", cfg.HTTP.ListenAddr)
	}
	if cfg.Negotiation.MaxAge != 15*time.Second {
		t.Fatalf("max_age = %v", cfg.Negotiation.MaxAge)
	}
}

func TestEnvKey(t *testing.T) {
	cases := map[string]string{
		"ADEPT_HTTP__LISTEN_ADDR":    "http.listen_addr",
		"ADEPT_NEGOTIATION__MAX_AGE": "negotiation.max_age",
		"ADEPT_DATABASE__GLOBAL_DSN": "database.global_dsn",
	}
	for in, want := range cases {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
