// internal/provision/engine.go

// Package provision orchestrates PostgreSQL-side DDL for tenant databases and
// keeps it paired with the local metadata store. Create, reset-password and
// rename fail closed: a remote failure aborts before any local write. Delete
// fails open: remote teardown failures are logged and the local record is
// removed regardless, so metadata never points at databases an administrator
// already dropped by hand.
package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/eidetica/eidetica/internal/core"
	"github.com/eidetica/eidetica/internal/domain"
	"github.com/eidetica/eidetica/internal/gate"
	"github.com/eidetica/eidetica/internal/logger"
	"github.com/eidetica/eidetica/internal/storage"
)

var (
	customLog = logger.NewLogger()

	// ErrInvalidName rejects names unusable as SQL identifiers before any
	// remote call.
	ErrInvalidName = errors.New("invalid name: use letters, digits and underscores, starting with a letter")
)

// adminDatabase is the maintenance database deletes connect to, so the
// session never holds open the database being dropped.
const adminDatabase = "postgres"

// ddlTimeout bounds each remote statement. Connection termination ahead of
// DROP DATABASE can stall while sessions drain; don't wait forever.
const ddlTimeout = 30 * time.Second

// Engine pairs remote cluster DDL with metadata-store commits. Construct one
// per command invocation; it holds no connection state of its own.
type Engine struct {
	meta    *sql.DB
	connect Connector
	host    string
	gate    *gate.Gate
}

// DatabaseInfo is what the info operation reports back to operators,
// including working plaintext credentials.
type DatabaseInfo struct {
	Name          string    `json:"name"`
	Username      string    `json:"username"`
	Password      string    `json:"password"`
	ConnectionURL string    `json:"connection_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewEngine creates a provisioning engine. host is the cluster host embedded
// in reported connection URLs. g may be nil for non-interactive callers, in
// which case destructive operations require force.
func NewEngine(meta *sql.DB, connect Connector, host string, g *gate.Gate) *Engine {
	return &Engine{
		meta:    meta,
		connect: connect,
		host:    host,
		gate:    g,
	}
}

// Create provisions a new PostgreSQL database plus owning role inside folder
// and records it locally. Remote provisioning strictly precedes the local
// commit; on any remote failure no local record is written. The returned
// record carries the generated credentials — the only time they are handed
// out other than via Info.
func (e *Engine) Create(ctx context.Context, userID int64, folderName, dbName string) (*domain.Database, error) {
	if !core.IsValidIdentifier(dbName) {
		return nil, ErrInvalidName
	}

	folder, err := storage.FindFolder(ctx, e.meta, userID, folderName)
	if err != nil {
		return nil, err
	}

	// Conflict check before any remote call.
	if _, err := storage.FindDatabase(ctx, e.meta, userID, dbName, folderName); err == nil {
		return nil, storage.ErrDatabaseExists
	} else if !errors.Is(err, storage.ErrDatabaseNotFound) {
		return nil, err
	}

	username, err := core.GenerateRoleName()
	if err != nil {
		return nil, err
	}
	password, err := core.GeneratePassword()
	if err != nil {
		return nil, err
	}

	if err := e.provisionRemote(ctx, dbName, username, password); err != nil {
		return nil, err
	}

	id, err := storage.RegisterDatabase(ctx, e.meta, folder.ID, dbName, username, password)
	if err != nil {
		// The remote database now exists with no local record. Surface the
		// orphan loudly; recovering it is a manual operation.
		customLog.Warnf("Provision: remote database '%s' (role %s) created but local registration failed: %v", dbName, username, err)
		return nil, fmt.Errorf("database '%s' was provisioned remotely but could not be recorded locally: %w", dbName, err)
	}

	customLog.Printf("Provision: created database '%s' in folder '%s' (role %s)", dbName, folderName, username)
	return &domain.Database{
		ID:        id,
		FolderID:  folder.ID,
		Name:      dbName,
		Username:  username,
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// provisionRemote issues the three creation statements against the cluster.
// Identifiers are quoted via pgx.Identifier; the password travels as a bound
// parameter and never appears in SQL text.
func (e *Engine) provisionRemote(ctx context.Context, dbName, username, password string) error {
	ctx, cancel := context.WithTimeout(ctx, ddlTimeout)
	defer cancel()

	conn, err := e.connect(ctx, "")
	if err != nil {
		return err
	}
	defer conn.Close()

	dbIdent := pgx.Identifier{dbName}.Sanitize()
	roleIdent := pgx.Identifier{username}.Sanitize()

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", dbIdent)); err != nil {
		return fmt.Errorf("failed to create database '%s': %w", dbName, err)
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE USER %s WITH PASSWORD $1", roleIdent), password); err != nil {
		return fmt.Errorf("failed to create role for database '%s': %w", dbName, err)
	}
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", dbIdent, roleIdent)); err != nil {
		return fmt.Errorf("failed to grant privileges on database '%s': %w", dbName, err)
	}
	return nil
}

// Info returns the stored record and connection URL for a database. Names are
// only unique per folder; pass folderName to disambiguate, otherwise the
// deterministic-but-arbitrary match documented on storage.FindDatabase is
// returned. Metadata only, no remote calls.
func (e *Engine) Info(ctx context.Context, userID int64, dbName, folderName string) (*DatabaseInfo, error) {
	record, err := storage.FindDatabase(ctx, e.meta, userID, dbName, folderName)
	if err != nil {
		return nil, err
	}
	return &DatabaseInfo{
		Name:          record.Name,
		Username:      record.Username,
		Password:      record.Password,
		ConnectionURL: record.ConnectionURL(e.host),
		CreatedAt:     record.CreatedAt,
	}, nil
}

// ResetPassword rotates the role password for a database: remote ALTER USER
// first, local update after, fail closed. Returns the new password.
// gate.ErrDeclined is returned when the confirmation prompt is not accepted.
func (e *Engine) ResetPassword(ctx context.Context, userID int64, dbName, folderName string, force bool) (string, error) {
	if !gate.Allow(e.gate, force, fmt.Sprintf("Are you sure you want to reset the password for database '%s'?", dbName)) {
		return "", gate.ErrDeclined
	}

	record, err := storage.FindDatabase(ctx, e.meta, userID, dbName, folderName)
	if err != nil {
		return "", err
	}

	newPassword, err := core.GeneratePassword()
	if err != nil {
		return "", err
	}

	if err := e.alterRolePassword(ctx, record.Username, newPassword); err != nil {
		return "", err
	}

	if err := storage.UpdateDatabasePassword(ctx, e.meta, record.ID, newPassword); err != nil {
		return "", err
	}

	customLog.Printf("Provision: reset password for database '%s' (role %s)", dbName, record.Username)
	return newPassword, nil
}

func (e *Engine) alterRolePassword(ctx context.Context, username, newPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, ddlTimeout)
	defer cancel()

	conn, err := e.connect(ctx, "")
	if err != nil {
		return err
	}
	defer conn.Close()

	roleIdent := pgx.Identifier{username}.Sanitize()
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("ALTER USER %s WITH PASSWORD $1", roleIdent), newPassword); err != nil {
		return fmt.Errorf("failed to reset password for role %s: %w", username, err)
	}
	return nil
}

// Delete tears down a provisioned database. Ordering: terminate active
// connections, DROP DATABASE IF EXISTS, DROP USER, then delete the local
// record. The remote steps are best-effort — each failure is logged and the
// sequence continues — so local metadata converges even when the remote side
// was already cleaned up manually. dryRun reports the intended action and
// returns true without any mutation, remote or local.
func (e *Engine) Delete(ctx context.Context, userID int64, dbName, folderName string, force, dryRun bool) (bool, error) {
	if !gate.Allow(e.gate, force, fmt.Sprintf("Are you sure you want to delete database '%s'?", dbName)) {
		return false, gate.ErrDeclined
	}

	record, err := storage.FindDatabase(ctx, e.meta, userID, dbName, folderName)
	if err != nil {
		return false, err
	}

	if dryRun {
		customLog.Printf("Provision: dry run - would delete database '%s' (role %s)", record.Name, record.Username)
		return true, nil
	}

	e.TeardownRemote(ctx, record.Name, record.Username)

	if err := storage.DeleteDatabase(ctx, e.meta, record.ID); err != nil {
		return false, err
	}

	customLog.Printf("Provision: deleted database '%s'", record.Name)
	return true, nil
}

// TeardownRemote drops a database and its role from the cluster, terminating
// active connections first. Every step is best-effort; failures are logged
// and swallowed. Used by Delete and by folder deletion, which tears down each
// contained database before the local cascade.
func (e *Engine) TeardownRemote(ctx context.Context, dbName, username string) {
	ctx, cancel := context.WithTimeout(ctx, ddlTimeout)
	defer cancel()

	// Connect to the maintenance database, never the target, to avoid
	// holding open the database being dropped.
	conn, err := e.connect(ctx, adminDatabase)
	if err != nil {
		customLog.Warnf("Provision: could not reach cluster to drop database '%s': %v", dbName, err)
		return
	}
	defer conn.Close()

	terminateSQL := `SELECT pg_terminate_backend(pg_stat_activity.pid)
	                 FROM pg_stat_activity
	                 WHERE pg_stat_activity.datname = $1
	                 AND pid <> pg_backend_pid()`
	if _, err := conn.ExecContext(ctx, terminateSQL, dbName); err != nil {
		customLog.Warnf("Provision: failed to terminate connections to '%s': %v", dbName, err)
	}

	dbIdent := pgx.Identifier{dbName}.Sanitize()
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbIdent)); err != nil {
		customLog.Warnf("Provision: failed to drop database '%s': %v", dbName, err)
	}

	roleIdent := pgx.Identifier{username}.Sanitize()
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("DROP USER %s", roleIdent)); err != nil {
		customLog.Warnf("Provision: failed to drop role %s: %v", username, err)
	}
}

// Rename changes a database's name on the cluster and locally, optionally
// updating the recorded role username. Fail closed: the local record is only
// touched after the remote ALTER succeeds.
func (e *Engine) Rename(ctx context.Context, userID int64, folderName, oldName, newName, newUsername string) error {
	if !core.IsValidIdentifier(newName) {
		return ErrInvalidName
	}

	record, err := storage.FindDatabase(ctx, e.meta, userID, oldName, folderName)
	if err != nil {
		return err
	}
	if newUsername == "" {
		newUsername = record.Username
	}

	if err := e.renameRemote(ctx, oldName, newName); err != nil {
		return err
	}

	if err := storage.UpdateDatabaseName(ctx, e.meta, record.ID, newName, newUsername); err != nil {
		return err
	}

	customLog.Printf("Provision: renamed database '%s' to '%s'", oldName, newName)
	return nil
}

func (e *Engine) renameRemote(ctx context.Context, oldName, newName string) error {
	ctx, cancel := context.WithTimeout(ctx, ddlTimeout)
	defer cancel()

	conn, err := e.connect(ctx, "")
	if err != nil {
		return err
	}
	defer conn.Close()

	oldIdent := pgx.Identifier{oldName}.Sanitize()
	newIdent := pgx.Identifier{newName}.Sanitize()
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("ALTER DATABASE %s RENAME TO %s", oldIdent, newIdent)); err != nil {
		return fmt.Errorf("failed to rename database '%s': %w", oldName, err)
	}
	return nil
}

// List returns the database records in a folder. Metadata only.
func (e *Engine) List(ctx context.Context, userID int64, folderName string) ([]domain.Database, error) {
	f, err := storage.FindFolder(ctx, e.meta, userID, folderName)
	if err != nil {
		return nil, err
	}
	return storage.ListDatabases(ctx, e.meta, f.ID)
}

// Search matches the user's database names case-insensitively across all
// folders. Metadata only, no remote calls.
func (e *Engine) Search(ctx context.Context, userID int64, query string) ([]domain.Database, error) {
	return storage.SearchDatabases(ctx, e.meta, userID, query)
}
