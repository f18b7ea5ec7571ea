// internal/provision/cluster.go
package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib" // Driver registration
)

// ErrClusterNotConfigured is returned before any connection attempt when the
// administrative PostgreSQL URL is absent.
var ErrClusterNotConfigured = errors.New("POSTGRES_URL is not configured")

// ClusterConn is the slice of connection behavior the engine needs from the
// cluster: statement execution and release. Each DDL statement runs in its
// own autocommitted transaction — CREATE/DROP DATABASE cannot run inside a
// multi-statement transaction, so nothing here exposes Begin.
type ClusterConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error
}

// Connector opens a short-lived administrative connection to the cluster.
// dbName selects which maintenance database to attach to; empty means the
// database named in the DSN. The caller must Close the connection on all
// exit paths.
type Connector func(ctx context.Context, dbName string) (ClusterConn, error)

// NewPgxConnector returns a Connector dialing the cluster at adminDSN via
// the pgx stdlib driver.
func NewPgxConnector(adminDSN string) Connector {
	return func(ctx context.Context, dbName string) (ClusterConn, error) {
		if adminDSN == "" {
			return nil, ErrClusterNotConfigured
		}
		dsn, err := rewriteDSN(adminDSN, dbName)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open cluster connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to cluster: %w", err)
		}
		return db, nil
	}
}

// rewriteDSN swaps the database component of a postgres URL (when dbName is
// non-empty) and forces pgx's simple query protocol. Utility statements such
// as CREATE USER cannot take server-side bind parameters; in simple protocol
// pgx substitutes them client-side with proper quoting, which is exactly what
// bound passwords in DDL need.
func rewriteDSN(dsn, dbName string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid cluster URL: %w", err)
	}
	if dbName != "" {
		u.Path = "/" + dbName
	}
	q := u.Query()
	q.Set("default_query_exec_mode", "simple_protocol")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
