package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/wardline/ward-api/internal/config"
	bedhandler "github.com/wardline/ward-api/internal/handler/bed"
	healthhandler "github.com/wardline/ward-api/internal/handler/health"
	migrationhandler "github.com/wardline/ward-api/internal/handler/migration"
	patienthandler "github.com/wardline/ward-api/internal/handler/patient"
	tenanthandler "github.com/wardline/ward-api/internal/handler/tenant"
	"github.com/wardline/ward-api/internal/middleware"
	"github.com/wardline/ward-api/internal/migrate"
	"github.com/wardline/ward-api/internal/model"
	"github.com/wardline/ward-api/internal/repository"
	"github.com/wardline/ward-api/internal/repository/postgres"
	"github.com/wardline/ward-api/internal/router"
	bedService "github.com/wardline/ward-api/internal/service/bed"
	patientService "github.com/wardline/ward-api/internal/service/patient"
	tenantService "github.com/wardline/ward-api/internal/service/tenant"
	"github.com/wardline/ward-api/internal/tenancy"
	"github.com/wardline/ward-api/pkg/auth"
	"github.com/wardline/ward-api/pkg/logger"
	"github.com/wardline/ward-api/pkg/metrics"
	"github.com/wardline/ward-api/pkg/security"
)

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("ward", "api")

	orchestrator, err := migrate.NewOrchestrator(db, migrate.Config{
		Concurrency: cfg.Migrate.Concurrency,
	}, log, m)
	if err != nil {
		log.Fatal(err, "failed to build migration orchestrator")
	}

	tenantRepo := postgres.NewTenantRepository(db)
	bedRepo := postgres.NewBedRepository()
	departmentRepo := postgres.NewDepartmentRepository()
	patientRepo := postgres.NewPatientRepository()
	outboxRepo := postgres.NewOutboxRepository(db)

	scoper := tenancy.NewScoper(db, registryAdapter{tenantRepo}, tenancy.ScoperConfig{
		CacheTTL:     cfg.Tenancy.CacheTTL,
		CacheCleanup: cfg.Tenancy.CacheCleanup,
	}, m)

	tokens := auth.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	hasher := security.NewBcryptKeyHasher(cfg.Security.BcryptCost)

	var encryptor security.Encryptor
	if cfg.Security.EncryptionKey != "" {
		encryptor, err = security.NewAESEncryptor([]byte(cfg.Security.EncryptionKey))
		if err != nil {
			log.Fatal(err, "failed to build encryptor")
		}
	}

	tenantSvc := tenantService.NewService(tenantRepo, orchestrator, scoper, hasher, tokens, log)
	bedSvc := bedService.NewService(bedRepo, departmentRepo, outboxRepo, m, log)
	patientSvc := patientService.NewService(patientRepo, encryptor)

	r := router.New(router.Deps{
		Health:    healthhandler.NewHandler(db),
		Tenants:   tenanthandler.NewHandler(tenantSvc),
		Migration: migrationhandler.NewHandler(orchestrator),
		Beds:      bedhandler.NewHandler(bedSvc),
		Patients:  patienthandler.NewHandler(patientSvc),
		Scoper:    scoper,
		Tokens:    tokens,
		Logger:    log,
		Metrics:   m,
		RateLimit: middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RPS),
			Burst: cfg.RateLimit.Burst,
		},
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "forced shutdown")
	}
	log.Info("server stopped")
}

// registryAdapter narrows the tenant repository to the scoper's Registry.
type registryAdapter struct {
	repo repository.TenantRepository
}

func (r registryAdapter) Resolve(ctx context.Context, tenantID string) (*model.Tenant, error) {
	return r.repo.Get(ctx, tenantID)
}
