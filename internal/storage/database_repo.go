// internal/storage/database_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/eidetica/eidetica/internal/domain"
)

// Specific errors for database record operations
var (
	ErrDatabaseNotFound = errors.New("database not found")
	ErrDatabaseExists   = errors.New("database name already exists in this folder")
)

// RegisterDatabase inserts a new provisioned-database record. The
// UNIQUE(folder_id, name) constraint re-verifies uniqueness at commit time,
// so a racing create loses here rather than silently duplicating.
func RegisterDatabase(ctx context.Context, db *sql.DB, folderID int64, name, username, password string) (int64, error) {
	sqlStatement := `INSERT INTO databases (folder_id, name, username, password) VALUES (?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, sqlStatement, folderID, name, username, password)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return 0, ErrDatabaseExists
		}
		customLog.Warnf("Storage: Failed to insert database record '%s' in folder %d: %v", name, folderID, err)
		return 0, fmt.Errorf("database error registering database: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve database ID after creation: %w", err)
	}
	return id, nil
}

// FindDatabase looks up a database record by name across the user's folders.
// folderName narrows the lookup to one folder; when empty and the same name
// exists in several folders, the match from the lowest folder id (then lowest
// database id) is returned, so unscoped lookups are deterministic but
// arbitrary. Callers that care must pass the folder.
func FindDatabase(ctx context.Context, db *sql.DB, userID int64, name, folderName string) (*domain.Database, error) {
	query := `SELECT d.id, d.folder_id, d.name, d.username, d.password, d.created_at
	          FROM databases d
	          JOIN folders f ON f.id = d.folder_id
	          WHERE f.user_id = ? AND d.name = ?`
	args := []any{userID, name}
	if folderName != "" {
		query += ` AND f.name = ?`
		args = append(args, folderName)
	}
	query += ` ORDER BY f.id, d.id LIMIT 1`

	row := db.QueryRowContext(ctx, query, args...)
	var d domain.Database
	err := row.Scan(&d.ID, &d.FolderID, &d.Name, &d.Username, &d.Password, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDatabaseNotFound
		}
		customLog.Warnf("Storage: Failed to find database '%s' for UserID %d: %v", name, userID, err)
		return nil, fmt.Errorf("database error finding database: %w", err)
	}
	return &d, nil
}

// ListDatabases returns all database records in a folder.
func ListDatabases(ctx context.Context, db *sql.DB, folderID int64) ([]domain.Database, error) {
	sqlStatement := `SELECT id, folder_id, name, username, password, created_at
	                 FROM databases WHERE folder_id = ? ORDER BY name`
	rows, err := db.QueryContext(ctx, sqlStatement, folderID)
	if err != nil {
		customLog.Warnf("Storage: Failed to list databases for folder %d: %v", folderID, err)
		return nil, fmt.Errorf("database error listing databases: %w", err)
	}
	defer rows.Close()

	return scanDatabases(rows)
}

// SearchDatabases returns the user's database records whose name contains
// query, case-insensitively, across all folders.
func SearchDatabases(ctx context.Context, db *sql.DB, userID int64, query string) ([]domain.Database, error) {
	sqlStatement := `SELECT d.id, d.folder_id, d.name, d.username, d.password, d.created_at
	                 FROM databases d
	                 JOIN folders f ON f.id = d.folder_id
	                 WHERE f.user_id = ? AND LOWER(d.name) LIKE LOWER(?)
	                 ORDER BY d.name`
	rows, err := db.QueryContext(ctx, sqlStatement, userID, "%"+query+"%")
	if err != nil {
		customLog.Warnf("Storage: Failed to search databases for UserID %d: %v", userID, err)
		return nil, fmt.Errorf("database error searching databases: %w", err)
	}
	defer rows.Close()

	return scanDatabases(rows)
}

// UpdateDatabaseName updates the name (and role username) of a record after a
// successful remote rename.
func UpdateDatabaseName(ctx context.Context, db *sql.DB, id int64, newName, newUsername string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE databases SET name = ?, username = ? WHERE id = ?`, newName, newUsername, id)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrDatabaseExists
		}
		customLog.Warnf("Storage: Failed to update database record %d: %v", id, err)
		return fmt.Errorf("database error updating database: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrDatabaseNotFound
	}
	return nil
}

// UpdateDatabasePassword stores a rotated role password.
func UpdateDatabasePassword(ctx context.Context, db *sql.DB, id int64, newPassword string) error {
	result, err := db.ExecContext(ctx, `UPDATE databases SET password = ? WHERE id = ?`, newPassword, id)
	if err != nil {
		customLog.Warnf("Storage: Failed to update password for database record %d: %v", id, err)
		return fmt.Errorf("database error updating password: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrDatabaseNotFound
	}
	return nil
}

// DeleteDatabase removes a database record by id.
func DeleteDatabase(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM databases WHERE id = ?`, id)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete database record %d: %v", id, err)
		return fmt.Errorf("database error deleting database: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrDatabaseNotFound
	}
	return nil
}

func scanDatabases(rows *sql.Rows) ([]domain.Database, error) {
	var databases []domain.Database
	for rows.Next() {
		var d domain.Database
		if err := rows.Scan(&d.ID, &d.FolderID, &d.Name, &d.Username, &d.Password, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed scanning database row: %w", err)
		}
		databases = append(databases, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading database rows: %w", err)
	}
	return databases, nil
}
