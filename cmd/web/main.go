// cmd/web/main.go
//
// Domain registry – HTTP entry point.
//
// Request life-cycle
// ------------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Load conf/global.yaml with ADEPT_ overrides.
//
//  3. Start daily rotating logger (tees to console when running in a TTY).
//
//  4. Wire the app: global DB, ID sequence, negotiator cache, health
//     checker, and domain.Service.
//
//  5. Serve the root router:
//
//     • /metrics                  – Prometheus
//     • /admin/structure/domain   – JSON admin API
//     • everything else           – negotiate host → redirect rules →
//                                   security headers → site handler
//
//  6. Shut down gracefully on SIGINT or SIGTERM.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yanizio/adept-domain/internal/app"
	"github.com/yanizio/adept-domain/internal/config"
	"github.com/yanizio/adept-domain/internal/logger"
	"github.com/yanizio/adept-domain/internal/server"
)

const serverEnvPath = "/usr/local/etc/adept-domain/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Config + logger ─────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logOut, err := logger.New(cfg.Paths.Root, runningInTTY(), cfg.Log.Level)
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 2.  Collaborators ───────────────────────────────────────────────
	//
	a, err := app.New(ctx, cfg, logOut)
	if err != nil {
		logOut.Fatalw("wire app", "err", err)
	}
	defer func() { _ = a.Close() }()

	// Repair a broken default before the first request arrives.
	if def, err := a.Service.Default(ctx); err != nil {
		logOut.Warnw("default domain check failed", "err", err)
	} else if def != nil {
		logOut.Infow("default domain", "id", def.ID, "hostname", def.Hostname)
	} else {
		logOut.Warnw("no domain records yet; run domainctl create")
	}

	//
	// ── 3.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP, a.Handler())
	if err := server.Run(ctx, srv, logOut); err != nil {
		logOut.Errorw("http server", "err", err)
	}
}
