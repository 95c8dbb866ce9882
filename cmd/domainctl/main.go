// cmd/domainctl/main.go
//
// Operator CLI for domain records.
//
// Context
// -------
// domainctl drives the same domain.Service as the admin API, so every
// refusal prints the same notice text:
//
//	domainctl migrate
//	domainctl list
//	domainctl show    <domain>
//	domainctl create  --name N --hostname H [--default] [--https] …
//	domainctl default <domain>
//	domainctl enable  <domain>
//	domainctl disable <domain>
//	domainctl set     <domain> <name> <value>
//	domainctl delete  <domain>
//	domainctl repair
//	domainctl check   [<domain>…]
//
// Configuration comes from conf/global.yaml plus ADEPT_ env overrides,
// exactly like cmd/web.  Logs go to stderr.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yanizio/adept-domain/internal/app"
	"github.com/yanizio/adept-domain/internal/config"
	"github.com/yanizio/adept-domain/internal/logger"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openApp).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// openApp loads config and wires every collaborator.
func openApp(ctx context.Context, debug bool) (*app.App, error) {
	level := "warn"
	if debug {
		level = "debug"
	}
	log := logger.Console(level)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, log)
}
