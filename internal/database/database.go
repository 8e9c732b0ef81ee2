// Package database centralises sqlx connection helpers for the control-plane
// pool.  The driver is go-sql-driver/mysql, which also works with MariaDB
// and TiDB.
//
// Public entry points:
//
//	BuildDSN(template, password)   – injects a Vault-sourced secret.
//	Open(ctx, dsn, opts)           – pooled *sqlx.DB, pinged before return.
//
// Open pings with a short linear backoff so a database that is still coming
// up alongside the app does not abort boot.  Callers Close() the returned
// pool on shutdown.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Options tunes the pool.  Zero values select the defaults below.
type Options struct {
	MaxOpen      int
	MaxIdle      int
	MaxLifetime  time.Duration
	PingAttempts int
	PingBackoff  time.Duration
}

func (o *Options) defaults() {
	if o.MaxOpen <= 0 {
		o.MaxOpen = 15
	}
	if o.MaxIdle <= 0 {
		o.MaxIdle = 5
	}
	if o.MaxLifetime <= 0 {
		o.MaxLifetime = 30 * time.Minute
	}
	if o.PingAttempts <= 0 {
		o.PingAttempts = 1
	}
	if o.PingBackoff <= 0 {
		o.PingBackoff = time.Second
	}
}

// BuildDSN parses a MySQL DSN template and sets its password.  parseTime is
// forced on because the tenant row carries TIMESTAMP columns.
func BuildDSN(template, password string) (string, error) {
	cfg, err := mysql.ParseDSN(template)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	if password != "" {
		cfg.Passwd = password
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// Open returns a pinged *sqlx.DB.
func Open(ctx context.Context, dsn string, o Options) (*sqlx.DB, error) {
	return open(ctx, "mysql", dsn, o)
}

func open(ctx context.Context, driver, dsn string, o Options) (*sqlx.DB, error) {
	o.defaults()

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(o.MaxOpen)
	db.SetMaxIdleConns(o.MaxIdle)
	db.SetConnMaxLifetime(o.MaxLifetime)

	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if attempt >= o.PingAttempts || ctx.Err() != nil {
			break
		}
		zap.L().Warn("database ping failed; retrying",
			zap.Int("attempt", attempt), zap.Error(err))

		t := time.NewTimer(time.Duration(attempt) * o.PingBackoff)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("database ping: %w", err)
}
