// internal/folder/manager_test.go
package folder_test

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eidetica/eidetica/config"
	"github.com/eidetica/eidetica/internal/folder"
	"github.com/eidetica/eidetica/internal/gate"
	"github.com/eidetica/eidetica/internal/provision"
	"github.com/eidetica/eidetica/internal/storage"
)

// recordingConn counts cluster connections and captures teardown statements.
type recordingConn struct {
	execs *[]string
}

func (c recordingConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	*c.execs = append(*c.execs, strings.Join(strings.Fields(query), " "))
	return nil, nil
}

func (c recordingConn) Close() error { return nil }

type testEnv struct {
	meta    *sql.DB
	manager *folder.Manager
	engine  *provision.Engine
	userID  int64
	execs   []string
}

func setup(t *testing.T, confirmInput string) *testEnv {
	t.Helper()
	cfg := &config.Config{
		MetadataDbDir:  t.TempDir(),
		MetadataDbFile: "test_metadata.db",
	}
	meta, err := storage.ConnectMetadataDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })

	userID, err := storage.CreateUser(context.Background(), meta, "alice", "hash", "user")
	require.NoError(t, err)

	env := &testEnv{meta: meta, userID: userID}
	connect := func(ctx context.Context, dbName string) (provision.ClusterConn, error) {
		return recordingConn{execs: &env.execs}, nil
	}
	g := gate.New(strings.NewReader(confirmInput), io.Discard)
	env.engine = provision.NewEngine(meta, connect, "localhost", g)
	env.manager = folder.NewManager(meta, env.engine, g)
	return env
}

func TestCreateAndList(t *testing.T) {
	env := setup(t, "")
	ctx := context.Background()

	created, err := env.manager.Create(ctx, env.userID, "proj", "main workspace")
	require.NoError(t, err)
	assert.Equal(t, "proj", created.Name)
	assert.Equal(t, "main workspace", created.Description)

	_, err = env.manager.Create(ctx, env.userID, "scratch", "")
	require.NoError(t, err)

	folders, err := env.manager.List(ctx, env.userID)
	require.NoError(t, err)
	assert.Len(t, folders, 2)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	env := setup(t, "")

	_, err := env.manager.Create(context.Background(), env.userID, "", "")
	assert.ErrorIs(t, err, folder.ErrEmptyName)
}

func TestCreateDuplicate(t *testing.T) {
	env := setup(t, "")
	ctx := context.Background()

	_, err := env.manager.Create(ctx, env.userID, "proj", "")
	require.NoError(t, err)
	_, err = env.manager.Create(ctx, env.userID, "proj", "")
	assert.ErrorIs(t, err, storage.ErrFolderExists)
}

func TestRename(t *testing.T) {
	env := setup(t, "")
	ctx := context.Background()

	_, err := env.manager.Create(ctx, env.userID, "proj", "")
	require.NoError(t, err)

	require.NoError(t, env.manager.Rename(ctx, env.userID, "proj", "proj_v2"))

	_, err = storage.FindFolder(ctx, env.meta, env.userID, "proj_v2")
	assert.NoError(t, err)
	_, err = storage.FindFolder(ctx, env.meta, env.userID, "proj")
	assert.ErrorIs(t, err, storage.ErrFolderNotFound)

	assert.ErrorIs(t, env.manager.Rename(ctx, env.userID, "proj_v2", ""), folder.ErrEmptyName)
	assert.ErrorIs(t, env.manager.Rename(ctx, env.userID, "ghost", "x"), storage.ErrFolderNotFound)
}

func TestDeleteTearsDownContainedDatabases(t *testing.T) {
	env := setup(t, "")
	ctx := context.Background()

	_, err := env.manager.Create(ctx, env.userID, "proj", "")
	require.NoError(t, err)
	_, err = env.engine.Create(ctx, env.userID, "proj", "app")
	require.NoError(t, err)
	_, err = env.engine.Create(ctx, env.userID, "proj", "metrics")
	require.NoError(t, err)
	env.execs = nil

	performed, err := env.manager.Delete(ctx, env.userID, "proj", true)
	require.NoError(t, err)
	assert.True(t, performed)

	// Three teardown statements per contained database.
	var drops int
	for _, stmt := range env.execs {
		if strings.HasPrefix(stmt, "DROP DATABASE") {
			drops++
		}
	}
	assert.Equal(t, 2, drops)

	_, err = storage.FindFolder(ctx, env.meta, env.userID, "proj")
	assert.ErrorIs(t, err, storage.ErrFolderNotFound)

	// The cascade took the database records with it.
	_, err = storage.FindDatabase(ctx, env.meta, env.userID, "app", "")
	assert.ErrorIs(t, err, storage.ErrDatabaseNotFound)
}

func TestDeleteNotFound(t *testing.T) {
	env := setup(t, "")

	_, err := env.manager.Delete(context.Background(), env.userID, "ghost", true)
	assert.ErrorIs(t, err, storage.ErrFolderNotFound)
	assert.Empty(t, env.execs)
}

func TestDeleteDeclined(t *testing.T) {
	env := setup(t, "n\n")
	ctx := context.Background()

	_, err := env.manager.Create(ctx, env.userID, "proj", "")
	require.NoError(t, err)

	_, err = env.manager.Delete(ctx, env.userID, "proj", false)
	assert.ErrorIs(t, err, gate.ErrDeclined)

	// Nothing happened, locally or remotely.
	_, err = storage.FindFolder(ctx, env.meta, env.userID, "proj")
	assert.NoError(t, err)
	assert.Empty(t, env.execs)
}

func TestSearch(t *testing.T) {
	env := setup(t, "")
	ctx := context.Background()

	for _, name := range []string{"proj_alpha", "proj_beta", "archive"} {
		_, err := env.manager.Create(ctx, env.userID, name, "")
		require.NoError(t, err)
	}

	matches, err := env.manager.Search(ctx, env.userID, "PROJ")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestGetInfo(t *testing.T) {
	env := setup(t, "")
	ctx := context.Background()

	_, err := env.manager.Create(ctx, env.userID, "proj", "workspace")
	require.NoError(t, err)
	_, err = env.engine.Create(ctx, env.userID, "proj", "app")
	require.NoError(t, err)

	info, err := env.manager.GetInfo(ctx, env.userID, "proj")
	require.NoError(t, err)
	assert.Equal(t, "proj", info.Folder.Name)
	assert.Equal(t, "workspace", info.Folder.Description)
	assert.Equal(t, 1, info.DatabaseCount)

	_, err = env.manager.GetInfo(ctx, env.userID, "ghost")
	assert.ErrorIs(t, err, storage.ErrFolderNotFound)
}
