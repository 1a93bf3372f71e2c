// Package db manages database connections, named queries, and schema
// migrations.
//
// Two backends are supported through sqlx: SQLite for single-box and
// development setups, PostgreSQL for shared deployments. Named queries
// load from embedded .sql files via dotsql; migrations are embedded SQL
// scripts applied by a checksum-validated runner.
package db

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// The workload is bursty: a refresh pass fans out reads and then writes
// one member list per playlist, with long quiet stretches between passes.
// A small pool covers the bursts; short idle and lifetime caps release
// connections during the quiet stretches rather than pinning Postgres
// slots the process rarely uses.
const (
	maxOpenConns    = 16
	maxIdleConns    = 4
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

// driverFor maps a connection URL onto an sql driver name and its data
// source string. sqlite://file.db is relative (host+path), while
// sqlite:///var/lib/x.db is absolute (empty host). Postgres URLs pass
// through untouched since lib/pq parses them natively.
func driverFor(u *url.URL, raw string) (driver, dataSource string, err error) {
	switch u.Scheme {
	case "sqlite":
		return "sqlite3", u.Host + u.Path, nil
	case "postgres":
		return "postgres", raw, nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme: %s (expected sqlite or postgres)", u.Scheme)
	}
}

// Open connects to the database named by a URL, configures pooling, and
// verifies the connection with a ping before handing it back.
func Open(dbURL string) (*sqlx.DB, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}

	driver, dataSource, err := driverFor(u, dbURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dataSource)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
