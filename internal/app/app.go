// internal/app/app.go
//
// Process wiring shared by cmd/web and cmd/domainctl.
//
// Context
// -------
// `New` turns a loaded Config into live collaborators:
//
//  1. Resolve the DB password (literal or `vault:` reference).
//  2. Open the MySQL pool and wrap it in store.Store.
//  3. Build the ID sequence (MySQL upsert or Redis script).
//  4. Start the negotiator cache and the health checker.
//  5. Hand everything to domain.Service.
//
// `Assemble` performs steps 4 and 5 only, so tests can pass an in-memory
// store and sequence.
//
// Notes
// -----
//   - Close releases the pool, the Redis client, and the evictor goroutine.
//   - Oxford commas, two spaces after periods.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yanizio/adept-domain/internal/config"
	"github.com/yanizio/adept-domain/internal/database"
	"github.com/yanizio/adept-domain/internal/domain"
	"github.com/yanizio/adept-domain/internal/health"
	"github.com/yanizio/adept-domain/internal/negotiate"
	"github.com/yanizio/adept-domain/internal/sequence"
	"github.com/yanizio/adept-domain/internal/store"
	"github.com/yanizio/adept-domain/internal/vault"
)

// App holds the wired collaborators.
type App struct {
	Config   *config.Config
	Log      *zap.SugaredLogger
	DB       *sqlx.DB     // nil when assembled without MySQL
	SQL      *store.Store // nil when assembled without MySQL
	Store    domain.Store
	IDs      domain.IDGenerator
	Resolver *negotiate.Resolver
	Health   *health.Checker
	Service  *domain.Service

	redis *redis.Client
}

// New opens every external dependency named by cfg.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	//
	// ── 1.  Password ────────────────────────────────────────────────────
	//
	var kv vault.KV
	if vault.IsRef(cfg.Database.GlobalPassword) {
		cli, err := vault.New(ctx, log)
		if err != nil {
			return nil, err
		}
		kv = cli
	}
	pw, err := vault.Resolve(ctx, kv, cfg.Database.GlobalPassword)
	if err != nil {
		return nil, fmt.Errorf("database password: %w", err)
	}

	//
	// ── 2.  Pool + store ────────────────────────────────────────────────
	//
	opts := database.DefaultOptions
	opts.MaxOpenConns = cfg.Database.MaxOpenConns
	opts.MaxIdleConns = cfg.Database.MaxIdleConns
	db, err := database.OpenWithOptions(ctx, database.BuildDSN(cfg.Database.GlobalDSN, pw), opts)
	if err != nil {
		return nil, fmt.Errorf("connect global DB: %w", err)
	}
	log.Infow("global DB online")
	st := store.New(db)

	//
	// ── 3.  Sequence ────────────────────────────────────────────────────
	//
	var (
		ids domain.IDGenerator
		rdb *redis.Client
	)
	switch cfg.Sequence.Driver {
	case "redis":
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Sequence.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			_ = db.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Sequence.RedisAddr, err)
		}
		ids = sequence.NewRedis(rdb, cfg.Sequence.RedisKey, cfg.Sequence.Floor)
	default:
		ids = sequence.NewSQL(db, cfg.Sequence.Name)
	}
	log.Infow("id sequence ready", "driver", cfg.Sequence.Driver)

	a := Assemble(cfg, log, st, ids)
	a.DB, a.SQL, a.redis = db, st, rdb
	return a, nil
}

// Assemble wires the negotiator, health checker, and service around an
// existing store and sequence.
func Assemble(cfg *config.Config, log *zap.SugaredLogger, st domain.Store, ids domain.IDGenerator) *App {
	if log == nil {
		log = zap.S()
	}
	res := negotiate.New(st, negotiate.Options{
		IdleTTL:         cfg.Negotiation.IdleTTL,
		MaxAge:          cfg.Negotiation.MaxAge,
		MaxEntries:      cfg.Negotiation.MaxEntries,
		EvictInterval:   cfg.Negotiation.EvictInterval,
		FallbackDefault: cfg.Negotiation.FallbackDefault,
		LocalhostAlias:  cfg.Negotiation.LocalhostAlias,
		StripWWW:        cfg.Negotiation.StripWWW,
	}, log.Named("negotiate"))

	chk := health.New(nil, health.Options{
		Timeout:   cfg.Health.Timeout,
		BasePath:  cfg.HTTP.BasePath,
		ProbePath: cfg.Health.ProbePath,
	}, log.Named("health"))

	svc := domain.NewService(domain.Deps{
		Store:       st,
		IDs:         ids,
		Negotiator:  res,
		Validator:   chk,
		Invalidator: res,
		Log:         log.Named("domain"),
	})

	return &App{
		Config:   cfg,
		Log:      log,
		Store:    st,
		IDs:      ids,
		Resolver: res,
		Health:   chk,
		Service:  svc,
	}
}

// Close releases every resource New opened.
func (a *App) Close() error {
	a.Resolver.Close()
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
