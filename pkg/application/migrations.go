package application

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// MigrationManager collects per-module embedded schema files and applies
// them with goose. Each module gets its own version table so module schemas
// stay independently numbered.
type MigrationManager interface {
	RegisterSchema(module string, fsys *embed.FS, dir string)
	Run() error
	Rollback() error
}

type schemaSource struct {
	module string
	fsys   fs.FS
	dir    string
}

type migrationManager struct {
	pool    *pgxpool.Pool
	schemas []schemaSource
}

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

func (m *migrationManager) RegisterSchema(module string, fsys *embed.FS, dir string) {
	m.schemas = append(m.schemas, schemaSource{module: module, fsys: fsys, dir: dir})
}

func (m *migrationManager) Run() error {
	return m.each(m.schemas, func(p *goose.Provider) error {
		_, err := p.Up(context.Background())
		return err
	})
}

// Rollback walks modules in reverse registration order so dependent
// schemas drop before the ones they reference.
func (m *migrationManager) Rollback() error {
	reversed := make([]schemaSource, 0, len(m.schemas))
	for i := len(m.schemas) - 1; i >= 0; i-- {
		reversed = append(reversed, m.schemas[i])
	}
	return m.each(reversed, func(p *goose.Provider) error {
		_, err := p.DownTo(context.Background(), 0)
		return err
	})
}

func (m *migrationManager) each(schemas []schemaSource, fn func(*goose.Provider) error) error {
	db := stdlib.OpenDBFromPool(m.pool)
	defer func() { _ = db.Close() }()

	for _, src := range schemas {
		sub, err := fs.Sub(src.fsys, src.dir)
		if err != nil {
			return err
		}
		store, err := database.NewStore(database.DialectPostgres, fmt.Sprintf("goose_db_version_%s", src.module))
		if err != nil {
			return err
		}
		provider, err := goose.NewProvider("", db, sub, goose.WithStore(store))
		if err != nil {
			return err
		}
		if err := fn(provider); err != nil {
			return err
		}
	}
	return nil
}
