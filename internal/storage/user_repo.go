// internal/storage/user_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/eidetica/eidetica/internal/domain"
)

// Specific errors for user operations
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// CreateUser inserts a new user into the metadata database.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash, role string) (int64, error) {
	sqlStatement := `INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`
	result, err := db.ExecContext(ctx, sqlStatement, username, passwordHash, role)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			if strings.Contains(sqliteErr.Error(), "users.username") {
				return 0, ErrUsernameExists
			}
		}
		customLog.Warnf("Storage: Failed to insert user %s: %v", username, err)
		return 0, fmt.Errorf("database error during user creation: %w", err)
	}
	userID, err := result.LastInsertId()
	if err != nil {
		customLog.Warnf("Storage: Failed to get last insert ID for user %s: %v", username, err)
		return 0, fmt.Errorf("failed to retrieve user ID after creation: %w", err)
	}
	return userID, nil
}

// FindUserByUsername retrieves a user by their unique username.
func FindUserByUsername(ctx context.Context, db *sql.DB, username string) (*domain.User, error) {
	sqlStatement := `SELECT id, username, password_hash, role, created_at FROM users WHERE username = ? LIMIT 1`
	row := db.QueryRowContext(ctx, sqlStatement, username)
	var user domain.User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		customLog.Warnf("Storage: Failed to find user by username %s: %v", username, err)
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return &user, nil
}

// ListUsers returns all users, optionally filtered by role.
func ListUsers(ctx context.Context, db *sql.DB, role string) ([]domain.User, error) {
	query := `SELECT id, username, password_hash, role, created_at FROM users`
	args := []any{}
	if role != "" {
		query += ` WHERE role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY username`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		customLog.Warnf("Storage: Failed to list users: %v", err)
		return nil, fmt.Errorf("database error listing users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading user rows: %w", err)
	}
	return users, nil
}

// UpdateUserRole changes the role of an existing user.
func UpdateUserRole(ctx context.Context, db *sql.DB, username, role string) error {
	result, err := db.ExecContext(ctx, `UPDATE users SET role = ? WHERE username = ?`, role, username)
	if err != nil {
		customLog.Warnf("Storage: Failed to update role for user %s: %v", username, err)
		return fmt.Errorf("database error updating user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes a user. Folder and database records owned by the user
// are removed by the ON DELETE CASCADE constraints.
func DeleteUser(ctx context.Context, db *sql.DB, username string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete user %s: %v", username, err)
		return fmt.Errorf("database error deleting user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
