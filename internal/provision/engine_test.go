// internal/provision/engine_test.go
package provision_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eidetica/eidetica/config"
	"github.com/eidetica/eidetica/internal/gate"
	"github.com/eidetica/eidetica/internal/provision"
	"github.com/eidetica/eidetica/internal/storage"
)

// fakeCluster records every statement the engine issues and simulates just
// enough role/database state to verify ordering and failure policies.
type fakeCluster struct {
	connects  int
	execs     []string
	execArgs  [][]any
	failOn    map[string]error // statement prefix -> injected error
	roles     map[string]string
	databases map[string]bool
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{
		failOn:    map[string]error{},
		roles:     map[string]string{},
		databases: map[string]bool{},
	}
}

// conn is one short-lived connection handed out by the connector.
type fakeConn struct {
	cluster *fakeCluster
	closed  bool
}

func (c *fakeConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f := c.cluster
	stmt := strings.Join(strings.Fields(query), " ")
	f.execs = append(f.execs, stmt)
	f.execArgs = append(f.execArgs, args)

	for prefix, err := range f.failOn {
		if strings.HasPrefix(stmt, prefix) {
			return nil, err
		}
	}

	switch {
	case strings.HasPrefix(stmt, "CREATE DATABASE"):
		f.databases[quotedIdent(stmt, 0)] = true
	case strings.HasPrefix(stmt, "CREATE USER"):
		f.roles[quotedIdent(stmt, 0)] = args[0].(string)
	case strings.HasPrefix(stmt, "ALTER USER"):
		role := quotedIdent(stmt, 0)
		if _, ok := f.roles[role]; !ok {
			return nil, fmt.Errorf("role %s does not exist", role)
		}
		f.roles[role] = args[0].(string)
	case strings.HasPrefix(stmt, "ALTER DATABASE"):
		old := quotedIdent(stmt, 0)
		if !f.databases[old] {
			return nil, fmt.Errorf("database %s does not exist", old)
		}
		delete(f.databases, old)
		f.databases[quotedIdent(stmt, 1)] = true
	case strings.HasPrefix(stmt, "DROP DATABASE"):
		delete(f.databases, quotedIdent(stmt, 0))
	case strings.HasPrefix(stmt, "DROP USER"):
		delete(f.roles, quotedIdent(stmt, 0))
	}
	return nil, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func (f *fakeCluster) connector() provision.Connector {
	return func(ctx context.Context, dbName string) (provision.ClusterConn, error) {
		f.connects++
		return &fakeConn{cluster: f}, nil
	}
}

var quotedIdentRe = regexp.MustCompile(`"([^"]+)"`)

// quotedIdent extracts the n-th quoted identifier from a sanitized statement.
func quotedIdent(stmt string, n int) string {
	matches := quotedIdentRe.FindAllStringSubmatch(stmt, -1)
	if n >= len(matches) {
		return ""
	}
	return matches[n][1]
}

// setupEngine builds an engine over a temp metadata store with one user and
// one folder, returning the pieces tests poke at.
func setupEngine(t *testing.T, cluster *fakeCluster, confirmInput string) (*provision.Engine, *sql.DB, int64) {
	t.Helper()
	cfg := &config.Config{
		MetadataDbDir:  t.TempDir(),
		MetadataDbFile: "test_metadata.db",
	}
	meta, err := storage.ConnectMetadataDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })

	ctx := context.Background()
	userID, err := storage.CreateUser(ctx, meta, "alice", "hash", "user")
	require.NoError(t, err)
	_, err = storage.CreateFolder(ctx, meta, userID, "proj", "")
	require.NoError(t, err)

	g := gate.New(strings.NewReader(confirmInput), io.Discard)
	engine := provision.NewEngine(meta, cluster.connector(), "localhost", g)
	return engine, meta, userID
}

var (
	roleNamePattern = regexp.MustCompile(`^[a-z]{12}$`)
	passwordPattern = regexp.MustCompile(`^[A-Za-z0-9]{16}$`)
)

func TestCreateThenInfo(t *testing.T) {
	cluster := newFakeCluster()
	engine, _, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	record, err := engine.Create(ctx, userID, "proj", "app")
	require.NoError(t, err)
	assert.Regexp(t, roleNamePattern, record.Username)
	assert.Regexp(t, passwordPattern, record.Password)

	// Remote provisioning ran in order before the local commit.
	require.Len(t, cluster.execs, 3)
	assert.Contains(t, cluster.execs[0], `CREATE DATABASE "app"`)
	assert.Contains(t, cluster.execs[1], "CREATE USER")
	assert.Contains(t, cluster.execs[1], "WITH PASSWORD $1")
	assert.Contains(t, cluster.execs[2], "GRANT ALL PRIVILEGES")

	// The password traveled as a bound parameter, never in SQL text.
	assert.Equal(t, []any{record.Password}, cluster.execArgs[1])
	assert.NotContains(t, cluster.execs[1], record.Password)

	info, err := engine.Info(ctx, userID, "app", "proj")
	require.NoError(t, err)
	assert.Equal(t, record.Name, info.Name)
	assert.Equal(t, record.Username, info.Username)
	assert.Equal(t, record.Password, info.Password)
	expected := fmt.Sprintf("postgresql://%s:%s@localhost/app", record.Username, record.Password)
	assert.Equal(t, expected, info.ConnectionURL)
}

func TestCreateConflictIssuesNoRemoteCalls(t *testing.T) {
	cluster := newFakeCluster()
	engine, _, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	_, err := engine.Create(ctx, userID, "proj", "app")
	require.NoError(t, err)
	callsAfterFirst := cluster.connects

	_, err = engine.Create(ctx, userID, "proj", "app")
	assert.ErrorIs(t, err, storage.ErrDatabaseExists)
	assert.Equal(t, callsAfterFirst, cluster.connects, "conflict must be detected before any remote call")
}

func TestCreateInvalidNameIssuesNoRemoteCalls(t *testing.T) {
	cluster := newFakeCluster()
	engine, _, userID := setupEngine(t, cluster, "")

	_, err := engine.Create(context.Background(), userID, "proj", "app;drop")
	assert.ErrorIs(t, err, provision.ErrInvalidName)
	assert.Zero(t, cluster.connects)
}

func TestCreateRemoteFailureFailsClosed(t *testing.T) {
	cluster := newFakeCluster()
	cluster.failOn["CREATE DATABASE"] = errors.New("permission denied to create database")
	engine, meta, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	_, err := engine.Create(ctx, userID, "proj", "app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")

	// No local record was written.
	_, err = storage.FindDatabase(ctx, meta, userID, "app", "proj")
	assert.ErrorIs(t, err, storage.ErrDatabaseNotFound)
}

func TestDeleteNotFoundIssuesNoRemoteCalls(t *testing.T) {
	cluster := newFakeCluster()
	engine, _, userID := setupEngine(t, cluster, "")

	_, err := engine.Delete(context.Background(), userID, "ghost", "proj", true, false)
	assert.ErrorIs(t, err, storage.ErrDatabaseNotFound)
	assert.Zero(t, cluster.connects)
}

func TestDeleteDryRun(t *testing.T) {
	cluster := newFakeCluster()
	engine, meta, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	_, err := engine.Create(ctx, userID, "proj", "app")
	require.NoError(t, err)
	callsAfterCreate := cluster.connects

	performed, err := engine.Delete(ctx, userID, "app", "proj", true, true)
	require.NoError(t, err)
	assert.True(t, performed)
	assert.Equal(t, callsAfterCreate, cluster.connects, "dry run must not touch the cluster")

	// The local record is still there.
	_, err = storage.FindDatabase(ctx, meta, userID, "app", "proj")
	assert.NoError(t, err)
}

func TestDeleteOrderingAndTeardown(t *testing.T) {
	cluster := newFakeCluster()
	engine, meta, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	record, err := engine.Create(ctx, userID, "proj", "app")
	require.NoError(t, err)
	cluster.execs = nil

	performed, err := engine.Delete(ctx, userID, "app", "proj", true, false)
	require.NoError(t, err)
	assert.True(t, performed)

	// Termination precedes DROP DATABASE precedes DROP USER.
	require.Len(t, cluster.execs, 3)
	assert.Contains(t, cluster.execs[0], "pg_terminate_backend")
	assert.Contains(t, cluster.execs[1], `DROP DATABASE IF EXISTS "app"`)
	assert.Contains(t, cluster.execs[2], "DROP USER")

	assert.False(t, cluster.databases["app"])
	_, roleExists := cluster.roles[record.Username]
	assert.False(t, roleExists)

	_, err = storage.FindDatabase(ctx, meta, userID, "app", "proj")
	assert.ErrorIs(t, err, storage.ErrDatabaseNotFound)
}

func TestDeleteFailsOpenOnRemoteErrors(t *testing.T) {
	cluster := newFakeCluster()
	engine, meta, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	_, err := engine.Create(ctx, userID, "proj", "app")
	require.NoError(t, err)

	// Every remote teardown step fails; local deletion must still converge.
	cluster.failOn["SELECT pg_terminate_backend"] = errors.New("permission denied")
	cluster.failOn["DROP DATABASE"] = errors.New("database is being accessed by other users")
	cluster.failOn["DROP USER"] = errors.New("role does not exist")

	performed, err := engine.Delete(ctx, userID, "app", "proj", true, false)
	require.NoError(t, err)
	assert.True(t, performed)

	_, err = storage.FindDatabase(ctx, meta, userID, "app", "proj")
	assert.ErrorIs(t, err, storage.ErrDatabaseNotFound)
}

func TestCreateDeleteCreateAgain(t *testing.T) {
	cluster := newFakeCluster()
	engine, _, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	_, err := engine.Create(ctx, userID, "proj", "app")
	require.NoError(t, err)
	_, err = engine.Delete(ctx, userID, "app", "proj", true, false)
	require.NoError(t, err)

	// No residual uniqueness conflict after a full teardown.
	_, err = engine.Create(ctx, userID, "proj", "app")
	assert.NoError(t, err)
}

func TestResetPasswordRotatesRemoteAndLocal(t *testing.T) {
	cluster := newFakeCluster()
	engine, _, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	record, err := engine.Create(ctx, userID, "proj", "app")
	require.NoError(t, err)
	oldPassword := record.Password

	newPassword, err := engine.ResetPassword(ctx, userID, "app", "proj", true)
	require.NoError(t, err)
	assert.NotEqual(t, oldPassword, newPassword)
	assert.Regexp(t, passwordPattern, newPassword)

	// The simulated remote role no longer holds the old password.
	assert.Equal(t, newPassword, cluster.roles[record.Username])

	info, err := engine.Info(ctx, userID, "app", "proj")
	require.NoError(t, err)
	assert.Equal(t, newPassword, info.Password)
}

func TestResetPasswordRemoteFailureFailsClosed(t *testing.T) {
	cluster := newFakeCluster()
	engine, _, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	record, err := engine.Create(ctx, userID, "proj", "app")
	require.NoError(t, err)

	cluster.failOn["ALTER USER"] = errors.New("connection reset by peer")
	_, err = engine.ResetPassword(ctx, userID, "app", "proj", true)
	require.Error(t, err)

	// Local password is untouched.
	info, err := engine.Info(ctx, userID, "app", "proj")
	require.NoError(t, err)
	assert.Equal(t, record.Password, info.Password)
}

func TestResetPasswordDeclined(t *testing.T) {
	cluster := newFakeCluster()
	engine, _, userID := setupEngine(t, cluster, "n\n")
	ctx := context.Background()

	record, err := engine.Create(ctx, userID, "proj", "app")
	require.NoError(t, err)
	callsAfterCreate := cluster.connects

	_, err = engine.ResetPassword(ctx, userID, "app", "proj", false)
	assert.ErrorIs(t, err, gate.ErrDeclined)
	assert.Equal(t, callsAfterCreate, cluster.connects)

	info, err := engine.Info(ctx, userID, "app", "proj")
	require.NoError(t, err)
	assert.Equal(t, record.Password, info.Password)
}

func TestRename(t *testing.T) {
	cluster := newFakeCluster()
	engine, _, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	record, err := engine.Create(ctx, userID, "proj", "app")
	require.NoError(t, err)

	require.NoError(t, engine.Rename(ctx, userID, "proj", "app", "app_live", ""))
	assert.True(t, cluster.databases["app_live"])
	assert.False(t, cluster.databases["app"])

	info, err := engine.Info(ctx, userID, "app_live", "proj")
	require.NoError(t, err)
	assert.Equal(t, record.Username, info.Username, "username kept when new one not supplied")

	_, err = engine.Info(ctx, userID, "app", "proj")
	assert.ErrorIs(t, err, storage.ErrDatabaseNotFound)
}

func TestRenameRemoteFailureFailsClosed(t *testing.T) {
	cluster := newFakeCluster()
	engine, _, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	_, err := engine.Create(ctx, userID, "proj", "app")
	require.NoError(t, err)

	cluster.failOn["ALTER DATABASE"] = errors.New("database is being accessed by other users")
	err = engine.Rename(ctx, userID, "proj", "app", "app_live", "")
	require.Error(t, err)

	// Local record still carries the old name.
	_, err = engine.Info(ctx, userID, "app", "proj")
	assert.NoError(t, err)
}

func TestSameNameAcrossFolders(t *testing.T) {
	cluster := newFakeCluster()
	engine, meta, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	_, err := storage.CreateFolder(ctx, meta, userID, "other", "")
	require.NoError(t, err)

	first, err := engine.Create(ctx, userID, "proj", "shared")
	require.NoError(t, err)
	second, err := engine.Create(ctx, userID, "other", "shared")
	require.NoError(t, err)

	// Scoped lookups resolve each record.
	inProj, err := engine.Info(ctx, userID, "shared", "proj")
	require.NoError(t, err)
	assert.Equal(t, first.Username, inProj.Username)

	inOther, err := engine.Info(ctx, userID, "shared", "other")
	require.NoError(t, err)
	assert.Equal(t, second.Username, inOther.Username)

	// Unscoped: documented behavior is the match from the lowest folder id.
	unscoped, err := engine.Info(ctx, userID, "shared", "")
	require.NoError(t, err)
	assert.Equal(t, first.Username, unscoped.Username)
}

func TestSearch(t *testing.T) {
	cluster := newFakeCluster()
	engine, _, userID := setupEngine(t, cluster, "")
	ctx := context.Background()

	_, err := engine.Create(ctx, userID, "proj", "app_prod")
	require.NoError(t, err)
	_, err = engine.Create(ctx, userID, "proj", "app_staging")
	require.NoError(t, err)
	_, err = engine.Create(ctx, userID, "proj", "metrics")
	require.NoError(t, err)

	matches, err := engine.Search(ctx, userID, "APP")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestClusterNotConfigured(t *testing.T) {
	cfg := &config.Config{
		MetadataDbDir:  t.TempDir(),
		MetadataDbFile: "test_metadata.db",
	}
	meta, err := storage.ConnectMetadataDB(cfg)
	require.NoError(t, err)
	defer meta.Close()

	ctx := context.Background()
	userID, err := storage.CreateUser(ctx, meta, "alice", "hash", "user")
	require.NoError(t, err)
	_, err = storage.CreateFolder(ctx, meta, userID, "proj", "")
	require.NoError(t, err)

	engine := provision.NewEngine(meta, provision.NewPgxConnector(""), "localhost", nil)
	_, err = engine.Create(ctx, userID, "proj", "app")
	assert.ErrorIs(t, err, provision.ErrClusterNotConfigured)

	// Fail closed: nothing recorded locally.
	_, err = storage.FindDatabase(ctx, meta, userID, "app", "proj")
	assert.ErrorIs(t, err, storage.ErrDatabaseNotFound)
}
