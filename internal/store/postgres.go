package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// NewPostgresConnector returns a Connector for the Postgres database at dsn.
// The pool is verified with a ping before it is cached.
func NewPostgresConnector(dsn string) *Connector[*sql.DB] {
	return NewConnector(func(ctx context.Context) (*sql.DB, error) {
		return OpenPostgres(ctx, dsn)
	}, func(db *sql.DB) error {
		return db.Close()
	})
}

// OpenPostgres opens and pings a Postgres pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
