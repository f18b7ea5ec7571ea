// internal/storage/folder_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/eidetica/eidetica/internal/domain"
)

// Specific errors for folder operations
var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrFolderExists   = errors.New("folder name already exists for this user")
)

// CreateFolder inserts a new folder for the given user. The UNIQUE(user_id,
// name) constraint is the authoritative uniqueness check, so a concurrent
// create with the same name still surfaces as ErrFolderExists here.
func CreateFolder(ctx context.Context, db *sql.DB, userID int64, name, description string) (int64, error) {
	sqlStatement := `INSERT INTO folders (user_id, name, description) VALUES (?, ?, ?)`
	result, err := db.ExecContext(ctx, sqlStatement, userID, name, description)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return 0, ErrFolderExists
		}
		customLog.Warnf("Storage: Failed to insert folder '%s' for UserID %d: %v", name, userID, err)
		return 0, fmt.Errorf("database error creating folder: %w", err)
	}
	folderID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve folder ID after creation: %w", err)
	}
	return folderID, nil
}

// FindFolder retrieves a folder by name for a specific user.
func FindFolder(ctx context.Context, db *sql.DB, userID int64, name string) (*domain.Folder, error) {
	sqlStatement := `SELECT id, user_id, name, COALESCE(description, ''), created_at
	                 FROM folders WHERE user_id = ? AND name = ? LIMIT 1`
	row := db.QueryRowContext(ctx, sqlStatement, userID, name)
	var f domain.Folder
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Description, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFolderNotFound
		}
		customLog.Warnf("Storage: Failed to find folder '%s' for UserID %d: %v", name, userID, err)
		return nil, fmt.Errorf("database error finding folder: %w", err)
	}
	return &f, nil
}

// FindFolderByID retrieves a folder by primary key.
func FindFolderByID(ctx context.Context, db *sql.DB, id int64) (*domain.Folder, error) {
	sqlStatement := `SELECT id, user_id, name, COALESCE(description, ''), created_at
	                 FROM folders WHERE id = ? LIMIT 1`
	row := db.QueryRowContext(ctx, sqlStatement, id)
	var f domain.Folder
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Description, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFolderNotFound
		}
		return nil, fmt.Errorf("database error finding folder: %w", err)
	}
	return &f, nil
}

// ListFolders returns all folders owned by a user.
func ListFolders(ctx context.Context, db *sql.DB, userID int64) ([]domain.Folder, error) {
	sqlStatement := `SELECT id, user_id, name, COALESCE(description, ''), created_at
	                 FROM folders WHERE user_id = ? ORDER BY name`
	rows, err := db.QueryContext(ctx, sqlStatement, userID)
	if err != nil {
		customLog.Warnf("Storage: Failed to list folders for UserID %d: %v", userID, err)
		return nil, fmt.Errorf("database error listing folders: %w", err)
	}
	defer rows.Close()

	return scanFolders(rows)
}

// SearchFolders returns the user's folders whose name contains query,
// case-insensitively.
func SearchFolders(ctx context.Context, db *sql.DB, userID int64, query string) ([]domain.Folder, error) {
	sqlStatement := `SELECT id, user_id, name, COALESCE(description, ''), created_at
	                 FROM folders
	                 WHERE user_id = ? AND LOWER(name) LIKE LOWER(?)
	                 ORDER BY name`
	rows, err := db.QueryContext(ctx, sqlStatement, userID, "%"+query+"%")
	if err != nil {
		customLog.Warnf("Storage: Failed to search folders for UserID %d: %v", userID, err)
		return nil, fmt.Errorf("database error searching folders: %w", err)
	}
	defer rows.Close()

	return scanFolders(rows)
}

// RenameFolder changes a folder's name, enforcing per-user uniqueness.
func RenameFolder(ctx context.Context, db *sql.DB, userID int64, name, newName string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE folders SET name = ? WHERE user_id = ? AND name = ?`, newName, userID, name)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrFolderExists
		}
		customLog.Warnf("Storage: Failed to rename folder '%s' for UserID %d: %v", name, userID, err)
		return fmt.Errorf("database error renaming folder: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rename result: %w", err)
	}
	if affected == 0 {
		return ErrFolderNotFound
	}
	return nil
}

// DeleteFolder removes a folder; contained database records cascade away.
// The caller is responsible for tearing down the corresponding remote
// databases first (see folder.Manager.Delete).
func DeleteFolder(ctx context.Context, db *sql.DB, userID int64, name string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM folders WHERE user_id = ? AND name = ?`, userID, name)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete folder '%s' for UserID %d: %v", name, userID, err)
		return fmt.Errorf("database error deleting folder: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrFolderNotFound
	}
	return nil
}

// CountDatabases returns the number of database records inside a folder.
func CountDatabases(ctx context.Context, db *sql.DB, folderID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM databases WHERE folder_id = ?`, folderID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("database error counting databases: %w", err)
	}
	return count, nil
}

func scanFolders(rows *sql.Rows) ([]domain.Folder, error) {
	var folders []domain.Folder
	for rows.Next() {
		var f domain.Folder
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.Description, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed scanning folder row: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading folder rows: %w", err)
	}
	return folders, nil
}
