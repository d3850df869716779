// Command migrate applies or rolls back the SQL schema migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"slices"
	"strings"

	"socialgraph/internal/config"
	"socialgraph/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|down|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// Schema changes here come only from the SQL files.
	cfg.DBAutoMigrate = false

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	migrations, err := database.Migrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		applied, err := database.RunMigrations(ctx, db, migrations)
		if err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		for _, m := range applied {
			log.Printf("applied: %s", m)
		}
		log.Printf("sql migrations applied (%d new)", len(applied))
	case "down":
		m, err := database.RollbackLast(ctx, db, migrations)
		if err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		if m == nil {
			log.Println("nothing to roll back")
			return nil
		}
		log.Printf("rolled back: %s", m)
	case "status":
		applied, err := database.AppliedVersions(ctx, db)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		for _, m := range migrations {
			state := "pending"
			if slices.Contains(applied, m.Version) {
				state = "applied"
			}
			log.Printf("%s: %s", state, m)
		}
	default:
		return usage()
	}

	return nil
}
