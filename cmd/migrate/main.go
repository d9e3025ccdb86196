package main

import (
	"context"
	"os"

	"github.com/wardline/ward-api/internal/config"
	"github.com/wardline/ward-api/internal/migrate"
	"github.com/wardline/ward-api/internal/repository/postgres"
	"github.com/wardline/ward-api/pkg/logger"
)

// Runs one migration pass over the shared catalog and every tenant
// namespace, then exits. Exit code 1 means the shared catalog failed;
// a degraded run (some tenant namespaces failed) exits 2 so deploy
// tooling can tell the two apart.
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

	orchestrator, err := migrate.NewOrchestrator(db, migrate.Config{
		Concurrency: cfg.Migrate.Concurrency,
	}, log, nil)
	if err != nil {
		log.Fatal(err, "failed to build migration orchestrator")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Migrate.Timeout)
	defer cancel()

	summary, err := orchestrator.Run(ctx)
	if err != nil {
		log.Error(err, "migration run failed")
		os.Exit(1)
	}

	for _, r := range summary.Results {
		if r.Err != nil {
			log.Error(r.Err, "namespace failed", "schema", r.Schema)
		} else {
			log.Info("namespace migrated",
				"schema", r.Schema, "applied", r.Applied, "skipped", r.Skipped)
		}
	}

	if summary.Degraded() {
		log.Warn("migration run degraded",
			"failed", summary.Failed(), "succeeded", summary.Succeeded())
		os.Exit(2)
	}
	log.Info("migration run complete",
		"namespaces", len(summary.Results), "duration", summary.Duration.String())
}
