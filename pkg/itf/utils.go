package itf

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"github.com/atrium-hq/atrium/modules"
	"github.com/atrium-hq/atrium/pkg/application"
	"github.com/atrium-hq/atrium/pkg/configuration"
	"github.com/atrium-hq/atrium/pkg/eventbus"
)

// PostgreSQL limits identifiers to 63 bytes; longer test names get a
// truncated name plus a hash suffix.
const (
	maxDBNameLength  = 63
	hashSuffixLength = 9
)

func NewPool(dbOpts string) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	config, err := pgxpool.ParseConfig(dbOpts)
	if err != nil {
		panic(err)
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Minute * 5
	config.MaxConnIdleTime = time.Second * 30

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		panic(fmt.Errorf("failed to create database pool: %w", err))
	}
	return pool
}

// CreateDB drops and recreates a database named after the test. The admin
// connection goes through database/sql since a pgx pool cannot issue
// CREATE DATABASE outside a transaction-free connection.
func CreateDB(name string) {
	dbName := sanitizeDBName(name)

	c := configuration.Use()
	adminConnStr := fmt.Sprintf(
		"host=%s port=%s user=%s dbname=postgres password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
	)
	db, err := sql.Open("postgres", adminConnStr)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close admin connection: %v", err)
		}
	}()

	if _, err := db.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)); err != nil {
		panic(err)
	}
	if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		panic(err)
	}
}

func DbOpts(name string) string {
	c := configuration.Use()
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, sanitizeDBName(name), c.Database.Password,
	)
}

// SetupApplication wires the built-in modules, plus any extras, against a
// fresh pool and runs their migrations.
func SetupApplication(pool *pgxpool.Pool, mods ...application.Module) (application.Application, error) {
	conf := configuration.Use()
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(conf.Logger()),
		Logger:   conf.Logger(),
	})
	if err := modules.Load(app, mods...); err != nil {
		return nil, err
	}
	if err := app.Migrations().Run(); err != nil {
		return nil, err
	}
	return app, nil
}

func sanitizeDBName(name string) string {
	sanitized := strings.ToLower(name)
	sanitized = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, sanitized)
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength {
		return sanitized
	}

	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(name)))[:hashSuffixLength-1]
	return sanitized[:maxDBNameLength-hashSuffixLength] + "_" + hash
}
