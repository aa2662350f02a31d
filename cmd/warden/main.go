package main

import (
	"context"
	"log"
	"os"

	"github.com/seantiz/warden/internal/api"
	"github.com/seantiz/warden/internal/command"
	"github.com/seantiz/warden/internal/config"
	"github.com/seantiz/warden/internal/schedule"
	"github.com/seantiz/warden/internal/store"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("warden: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cmd := command.New(logger)
	sched := schedule.New(logger)

	// Rebuild runners for every persisted task definition. History is
	// runtime-only and starts empty after a restart.
	defs, err := db.ListTasks(context.Background())
	if err != nil {
		log.Fatalf("failed to load task definitions: %v", err)
	}
	for _, def := range defs {
		runner := schedule.BuildRunner(def, cmd, logger)
		if err := sched.Register(def.CronSpec, runner); err != nil {
			logger.Error("skipping stored task", "task", def.Name, "error", err)
		}
	}
	logger.Info("tasks restored", "count", len(defs))

	sched.Start()

	srv := api.NewServer(cfg.ListenAddr, db, sched, cmd, logger)

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
