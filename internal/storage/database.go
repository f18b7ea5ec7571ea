// internal/storage/database.go
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Driver registration

	"github.com/eidetica/eidetica/config"
	"github.com/eidetica/eidetica/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// ConnectMetadataDB initializes the connection pool for the metadata SQLite
// database and ensures the required tables ('users', 'folders', 'databases')
// exist. Foreign keys are switched on so folder and database rows cascade
// away with their owners.
func ConnectMetadataDB(cfg *config.Config) (*sql.DB, error) {
	dbPath := filepath.Join(cfg.MetadataDbDir, cfg.MetadataDbFile)
	customLog.Printf("Storage: Initializing metadata database: %s", dbPath)

	// Ensure the data directory exists
	if err := os.MkdirAll(cfg.MetadataDbDir, 0750); err != nil {
		customLog.Warnf("Storage: Error creating data directory '%s': %v", cfg.MetadataDbDir, err)
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// ?_foreign_keys=on enables foreign key constraint enforcement,
	// which the cascade deletes below rely on.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		customLog.Warnf("Storage: Failed to open metadata db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to open metadata db: %w", err)
	}

	// Verify connection is working
	if err = db.Ping(); err != nil {
		db.Close()
		customLog.Warnf("Storage: Failed to ping metadata db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to connect to metadata db: %w", err)
	}

	// --- Ensure 'users' table exists ---
	createUsersTableSQL := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err = db.Exec(createUsersTableSQL); err != nil {
		db.Close()
		customLog.Warnf("Storage: Failed to create users table: %v", err)
		return nil, fmt.Errorf("failed to ensure users table: %w", err)
	}

	// --- Ensure 'folders' table exists ---
	createFoldersTableSQL := `
	CREATE TABLE IF NOT EXISTS folders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, name),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`
	if _, err = db.Exec(createFoldersTableSQL); err != nil {
		db.Close()
		customLog.Warnf("Storage: Failed to create folders table: %v", err)
		return nil, fmt.Errorf("failed to ensure folders table: %w", err)
	}

	// --- Ensure 'databases' table exists ---
	// password is the generated role password in plaintext; see the note on
	// domain.Database before widening access to this column.
	createDatabasesTableSQL := `
	CREATE TABLE IF NOT EXISTS databases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		username TEXT NOT NULL,
		password TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (folder_id, name),
		FOREIGN KEY (folder_id) REFERENCES folders(id) ON DELETE CASCADE
	);`
	if _, err = db.Exec(createDatabasesTableSQL); err != nil {
		db.Close()
		customLog.Warnf("Storage: Failed to create databases table: %v", err)
		return nil, fmt.Errorf("failed to ensure databases table: %w", err)
	}

	customLog.Println("Storage: Metadata database ready.")
	return db, nil
}
