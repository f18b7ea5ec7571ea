// internal/folder/manager.go

// Package folder implements CRUD for the per-user namespaces scoping
// provisioned databases. Folder mutations are pure metadata operations except
// delete, which first tears down each contained database on the cluster so
// the local cascade never strands live remote databases.
package folder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eidetica/eidetica/internal/domain"
	"github.com/eidetica/eidetica/internal/gate"
	"github.com/eidetica/eidetica/internal/logger"
	"github.com/eidetica/eidetica/internal/provision"
	"github.com/eidetica/eidetica/internal/storage"
)

var (
	customLog = logger.NewLogger()

	// ErrEmptyName rejects blank folder names before touching the store.
	ErrEmptyName = errors.New("folder name cannot be empty")
)

// Manager runs folder operations against the metadata store, delegating
// remote teardown to the provisioning engine on delete.
type Manager struct {
	meta   *sql.DB
	engine *provision.Engine
	gate   *gate.Gate
}

// Info is a folder plus its computed database count.
type Info struct {
	Folder        domain.Folder `json:"folder"`
	DatabaseCount int           `json:"database_count"`
}

// NewManager creates a folder manager. g may be nil for non-interactive
// callers, in which case delete requires force.
func NewManager(meta *sql.DB, engine *provision.Engine, g *gate.Gate) *Manager {
	return &Manager{meta: meta, engine: engine, gate: g}
}

// Create adds a folder for the user. Name uniqueness is enforced per user.
func (m *Manager) Create(ctx context.Context, userID int64, name, description string) (*domain.Folder, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	id, err := storage.CreateFolder(ctx, m.meta, userID, name, description)
	if err != nil {
		return nil, err
	}
	customLog.Printf("Folder: created '%s' for UserID %d", name, userID)
	return storage.FindFolderByID(ctx, m.meta, id)
}

// Rename changes a folder's name, with the same per-user uniqueness rule.
func (m *Manager) Rename(ctx context.Context, userID int64, name, newName string) error {
	if newName == "" {
		return ErrEmptyName
	}
	if err := storage.RenameFolder(ctx, m.meta, userID, name, newName); err != nil {
		return err
	}
	customLog.Printf("Folder: renamed '%s' to '%s' for UserID %d", name, newName, userID)
	return nil
}

// Delete removes a folder and everything in it. Each contained database is
// torn down on the cluster first (best-effort, same fail-open policy as
// database delete); the folder row then goes, cascading the local records.
// gate.ErrDeclined is returned when the confirmation prompt is not accepted.
func (m *Manager) Delete(ctx context.Context, userID int64, name string, force bool) (bool, error) {
	if !gate.Allow(m.gate, force, fmt.Sprintf("Are you sure you want to delete folder '%s' and all its databases?", name)) {
		return false, gate.ErrDeclined
	}

	f, err := storage.FindFolder(ctx, m.meta, userID, name)
	if err != nil {
		return false, err
	}

	databases, err := storage.ListDatabases(ctx, m.meta, f.ID)
	if err != nil {
		return false, err
	}
	for _, d := range databases {
		m.engine.TeardownRemote(ctx, d.Name, d.Username)
	}

	if err := storage.DeleteFolder(ctx, m.meta, userID, name); err != nil {
		return false, err
	}
	customLog.Printf("Folder: deleted '%s' (%d databases) for UserID %d", name, len(databases), userID)
	return true, nil
}

// List returns all folders owned by the user.
func (m *Manager) List(ctx context.Context, userID int64) ([]domain.Folder, error) {
	return storage.ListFolders(ctx, m.meta, userID)
}

// Search matches folder names case-insensitively.
func (m *Manager) Search(ctx context.Context, userID int64, query string) ([]domain.Folder, error) {
	return storage.SearchFolders(ctx, m.meta, userID, query)
}

// GetInfo returns a folder together with its database count.
func (m *Manager) GetInfo(ctx context.Context, userID int64, name string) (*Info, error) {
	f, err := storage.FindFolder(ctx, m.meta, userID, name)
	if err != nil {
		return nil, err
	}
	count, err := storage.CountDatabases(ctx, m.meta, f.ID)
	if err != nil {
		return nil, err
	}
	return &Info{Folder: *f, DatabaseCount: count}, nil
}
