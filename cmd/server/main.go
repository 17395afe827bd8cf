package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	authhandler "castingbase/internal/auth/handler"
	"castingbase/internal/auth/lockout"
	authservice "castingbase/internal/auth/service"
	"castingbase/internal/blob"
	httpapi "castingbase/internal/http"
	identityhandler "castingbase/internal/identity/handler"
	identitymetrics "castingbase/internal/identity/metrics"
	identityservice "castingbase/internal/identity/service"
	identitystore "castingbase/internal/identity/store"
	"castingbase/internal/identity/store/tokencache"
	jwttoken "castingbase/internal/jwt_token"
	"castingbase/internal/platform/config"
	"castingbase/internal/platform/httpserver"
	"castingbase/internal/platform/logger"
	platformredis "castingbase/internal/platform/redis"
	productionhandler "castingbase/internal/production/handler"
	productionmetrics "castingbase/internal/production/metrics"
	productionservice "castingbase/internal/production/service"
	productionstore "castingbase/internal/production/store"
	"castingbase/pkg/platform/audit"
	auditpublisher "castingbase/pkg/platform/audit/publisher"
	auditworker "castingbase/pkg/platform/audit/worker"
)

const (
	sweepInterval  = 5 * time.Minute
	auditBuffer    = 256
	shutdownWindow = 10 * time.Second
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when configured, in-memory otherwise.
	var (
		identities  identitystore.Store
		productions productionstore.Store
		identityTx  identityservice.StoreTx
		db          *sql.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		identities = identitystore.NewPostgres(db)
		productions = productionstore.NewPostgres(db)
		identityTx = newPostgresTx(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		identities = identitystore.NewMemory()
		productions = productionstore.NewMemory()
		identityTx = identityservice.NewMemoryTx()
	}

	// Audit pipeline: services emit into a buffered channel, the worker
	// drains it into the store and the optional Kafka publisher.
	auditCh := make(chan audit.Event, auditBuffer)
	auditStore := audit.NewMemoryStore()
	emitter := audit.NewEmitter(auditCh, log)
	workerOpts := []auditworker.Option{auditworker.WithLogger(log)}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := auditpublisher.NewKafka(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		workerOpts = append(workerOpts, auditworker.WithPublisher(kafka))
	}
	worker := auditworker.New(auditStore, auditCh, workerOpts...)

	photoDir, err := blob.NewFilesystem(cfg.UploadDir)
	if err != nil {
		log.Error("prepare upload dir", "error", err)
		os.Exit(1)
	}

	identityOpts := []identityservice.Option{
		identityservice.WithLogger(log),
		identityservice.WithMetrics(identitymetrics.New()),
		identityservice.WithAuditEmitter(emitter),
		identityservice.WithTx(identityTx),
		identityservice.WithBlobStore(photoDir),
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		identityOpts = append(identityOpts, identityservice.WithTokenCache(tokencache.NewRedis(redisClient.Client)))
	}

	identitySvc := identityservice.NewService(identities, productions, identityOpts...)

	productionSvc := productionservice.NewService(productions, identities,
		productionservice.WithLogger(log),
		productionservice.WithMetrics(productionmetrics.New()),
		productionservice.WithAuditEmitter(emitter),
		productionservice.WithTx(identityTx),
	)

	var lockoutStore lockout.Store = lockout.NewMemory()
	if redisClient != nil {
		lockoutStore = lockout.NewRedis(redisClient.Client)
	}

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	authSvc := authservice.NewService(identities, tokens, cfg.SessionExpiry,
		authservice.WithLogger(log),
		authservice.WithAuditEmitter(emitter),
		authservice.WithLockout(lockout.NewService(lockoutStore, lockout.WithLogger(log))),
	)

	checks := map[string]httpapi.HealthChecker{}
	if db != nil {
		checks["database"] = dbHealth{db}
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	router := httpapi.NewRouter(httpapi.Options{
		Logger: log,
		Handlers: []httpapi.Registrar{
			identityhandler.New(identitySvc, log),
			productionhandler.New(productionSvc, log),
			authhandler.New(authSvc, cfg.SessionExpiry, log),
		},
		Checks: checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting castingbase", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return worker.Run(gctx)
	})

	// Expired partial registrations are dropped lazily on access; this
	// sweeper bounds how long abandoned rows linger between accesses.
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if _, err := identitySvc.SweepExpired(gctx); err != nil {
					log.WarnContext(gctx, "expired registration sweep failed", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWindow)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
