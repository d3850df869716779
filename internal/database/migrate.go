package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"socialgraph/internal/middleware"

	"gorm.io/gorm"
)

// Migration is one versioned SQL migration with its rollback script.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

func (m Migration) String() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations returns the embedded production (postgres) migrations in version order.
func Migrations() ([]Migration, error) {
	return LoadMigrations(migrationFS, "migrations")
}

// LoadMigrations reads NNNN_name.up.sql / NNNN_name.down.sql pairs from dir.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var out []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		base := strings.TrimSuffix(name, ".up.sql")
		parts := strings.SplitN(base, "_", 2)
		if len(parts) != 2 {
			middleware.Logger.Warn("Skipping migration with invalid naming", slog.String("file", name))
			continue
		}
		version, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid migration version in %s: %w", name, err)
		}
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %d (%s, %s)", version, prev, name)
		}
		seen[version] = name

		up, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read up migration %s: %w", name, err)
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, base+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("failed to read down migration for %s: %w", name, err)
		}

		out = append(out, Migration{
			Version:    version,
			Name:       parts[1],
			UpScript:   string(up),
			DownScript: string(down),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// MigrationLog represents a record of an applied migration in the database.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for MigrationLog.
func (MigrationLog) TableName() string {
	return "schema_migrations"
}

const ensureMigrationLogTableSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMP NOT NULL
)`

// AppliedVersions returns the versions recorded in schema_migrations.
func AppliedVersions(ctx context.Context, db *gorm.DB) ([]int, error) {
	if err := db.WithContext(ctx).Exec(ensureMigrationLogTableSQL).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	var versions []int
	if err := db.WithContext(ctx).Model(&MigrationLog{}).Order("version ASC").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	return versions, nil
}

// RunMigrations applies every pending migration. Each migration and its log
// row commit in one transaction.
func RunMigrations(ctx context.Context, db *gorm.DB, migrations []Migration) ([]Migration, error) {
	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	appliedSet := make(map[int]bool, len(applied))
	for _, v := range applied {
		appliedSet[v] = true
	}

	var ran []Migration
	for _, m := range migrations {
		if appliedSet[m.Version] {
			continue
		}

		middleware.Logger.InfoContext(ctx, "Applying migration", slog.Int("version", m.Version), slog.String("name", m.Name))
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", m, err)
			}
			entry := MigrationLog{Version: m.Version, Name: m.Name, AppliedAt: time.Now().UTC()}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m, err)
			}
			return nil
		})
		if err != nil {
			return ran, err
		}
		ran = append(ran, m)
	}

	return ran, nil
}

// RollbackLast reverts the most recently applied migration. It returns nil when nothing is applied.
func RollbackLast(ctx context.Context, db *gorm.DB, migrations []Migration) (*Migration, error) {
	applied, err := AppliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(applied) == 0 {
		return nil, nil
	}

	last := applied[len(applied)-1]
	var target *Migration
	for i := range migrations {
		if migrations[i].Version == last {
			target = &migrations[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("applied migration %d has no script", last)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(target.DownScript).Error; err != nil {
			return fmt.Errorf("failed to roll back migration %s: %w", target, err)
		}
		return tx.Where("version = ?", target.Version).Delete(&MigrationLog{}).Error
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "Migration rolled back", slog.Int("version", target.Version))
	return target, nil
}
