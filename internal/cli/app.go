// internal/cli/app.go

// Package cli implements the command-line surface: users, folders and
// databases subcommands plus the HTTP serve mode. Handlers here are thin
// glue — they resolve the acting user, invoke the core operations and format
// the outcome; all real behavior lives in internal/.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/eidetica/eidetica/config"
	"github.com/eidetica/eidetica/internal/domain"
	"github.com/eidetica/eidetica/internal/folder"
	"github.com/eidetica/eidetica/internal/gate"
	"github.com/eidetica/eidetica/internal/provision"
	"github.com/eidetica/eidetica/internal/storage"
)

// App wires the core components for one CLI invocation. The metadata store
// handle is scoped to the command, not the process.
type App struct {
	Cfg     *config.Config
	Meta    *sql.DB
	Engine  *provision.Engine
	Folders *folder.Manager
	Gate    *gate.Gate
	Out     io.Writer
}

// NewApp loads configuration, opens the metadata store and builds the core
// components with an interactive safety gate on stdin.
func NewApp() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	meta, err := storage.ConnectMetadataDB(cfg)
	if err != nil {
		return nil, err
	}

	g := gate.New(os.Stdin, os.Stdout)
	engine := provision.NewEngine(meta, provision.NewPgxConnector(cfg.PostgresURL), cfg.ClusterHost(), g)
	folders := folder.NewManager(meta, engine, g)

	return &App{
		Cfg:     cfg,
		Meta:    meta,
		Engine:  engine,
		Folders: folders,
		Gate:    g,
		Out:     os.Stdout,
	}, nil
}

// Close releases the metadata store handle.
func (a *App) Close() error {
	if a.Meta != nil {
		return a.Meta.Close()
	}
	return nil
}

// resolveUser maps the --username flag to a stored user.
func (a *App) resolveUser(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, errors.New("--username is required")
	}
	return storage.FindUserByUsername(ctx, a.Meta, username)
}

// promptPassword reads a password without echoing when stdin is a terminal,
// mirroring getpass behavior.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		defer fmt.Fprintln(os.Stderr)
		raw, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}
	var pw string
	if _, err := fmt.Fscanln(os.Stdin, &pw); err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return pw, nil
}

// reportCancelled prints the standard message for a declined safety gate and
// reports whether err was a cancellation (a normal outcome, not a failure).
func (a *App) reportCancelled(err error) bool {
	if errors.Is(err, gate.ErrDeclined) {
		fmt.Fprintln(a.Out, "Cancelled")
		return true
	}
	return false
}
