// Package database wraps a MySQL connection with pool tuning and the
// read/write timeouts shared by the SQL connector and the audit store.
package database

import (
	"context"
	"database/sql"
	"time"

	"record-reconciliation/pkg/config"
	errs "record-reconciliation/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
)

type DB struct {
	conn         *sql.DB
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// New opens a MySQL connection using the pool settings from cfg and
// verifies it with a ping.
func New(dsn string, cfg *config.Config) (*DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errs.NewDataAccess("database.New", errs.CodeConnectorConnect, "mysql", "failed to open connection", err)
	}

	conn.SetMaxOpenConns(cfg.DBMaxOpenConns)
	conn.SetMaxIdleConns(cfg.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errs.NewDataAccess("database.New", errs.CodeConnectorConnect, "mysql", "ping failed", err)
	}

	rt := cfg.DBReadTimeout
	if rt == 0 {
		rt = 8 * time.Second
	}
	wt := cfg.DBWriteTimeout
	if wt == 0 {
		wt = 6 * time.Second
	}

	return &DB{conn: conn, readTimeout: rt, writeTimeout: wt}, nil
}

func (db *DB) Close() error { return db.conn.Close() }

// Conn exposes the underlying handle for callers that manage their own
// statement lifecycle.
func (db *DB) Conn() *sql.DB { return db.conn }

func (db *DB) WithReadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.readTimeout)
}

func (db *DB) WithWriteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.writeTimeout)
}
