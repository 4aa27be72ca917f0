package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	dbPingTimeout = 5 * time.Second
	dbMaxWait     = 30 * time.Second
	dbMaxBackoff  = 5 * time.Second
)

// openDatabase opens the Postgres pool and pings with backoff until
// the instance responds or the wait budget runs out.
func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	deadline := time.Now().Add(dbMaxWait)
	backoff := 500 * time.Millisecond
	var lastErr error

	for {
		pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return db, nil
		}

		if ctx.Err() != nil || time.Now().After(deadline) {
			break
		}

		time.Sleep(backoff)
		if backoff *= 2; backoff > dbMaxBackoff {
			backoff = dbMaxBackoff
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("ping database: %w", lastErr)
}
