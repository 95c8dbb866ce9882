// internal/config/loader.go
//
// Layered configuration for cmd/web and cmd/domainctl.
//
// Context
// -------
// Later layers win:
//
//  1. `<root>/conf/.env` when present (cmd/web also loads the jail-wide
//     env file before this runs).
//  2. `conf/global.yaml`, or the file named by `ADEPT_CONFIG`.
//  3. `ADEPT_SECTION__KEY` environment variables.
//
// Defaults are filled after the merge and before validation, so a value
// set to zero by an override still goes through the validator's rules.
// The last good Config is kept for Get.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// EnvPrefix marks environment overrides.
const EnvPrefix = "ADEPT_"

var current atomic.Pointer[Config]

// Get returns the Config stored by the last successful Load, or nil.
func Get() *Config { return current.Load() }

// Load merges every layer, validates the result, and stores it for Get.
func Load() (*Config, error) {
	root := findRoot()
	log := zap.S().With("root", root)

	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")
	path := yamlPath(root)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		log.Errorw("config yaml load failed", "file", path, "err", err)
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	cfg.Paths.Root = root
	cfg.applyDefaults()

	if err := validateStruct(&cfg); err != nil {
		log.Errorw("config invalid", "file", path, "err", err)
		return nil, err
	}

	current.Store(&cfg)
	log.Infow("config loaded",
		"file", path,
		"listen_addr", cfg.HTTP.ListenAddr,
		"sequence", cfg.Sequence.Driver,
		"fallback_default", cfg.Negotiation.FallbackDefault,
	)
	return &cfg, nil
}

// envKey maps ADEPT_NEGOTIATION__MAX_AGE to negotiation.max_age.
func envKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, EnvPrefix), "__", "."))
}

func yamlPath(root string) string {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p
	}
	return filepath.Join(root, "conf", "global.yaml")
}

// findRoot honours ADEPT_ROOT, then walks up from the working directory to
// the first conf/global.yaml, then assumes an installed <root>/bin layout.
func findRoot() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}
	wd, _ := os.Getwd()
	for dir := wd; ; {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if exe, err := os.Executable(); err == nil && filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}
