// internal/cli/serve.go
package cli

import (
	"errors"
	"fmt"

	"github.com/eidetica/eidetica/api"
)

// RunServe starts the HTTP API exposing the same operations as the CLI.
func (a *App) RunServe() error {
	if a.Cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable must be set for serve mode")
	}

	// The HTTP handlers force destructive operations (the request is the
	// confirmation), so the interactive gate is never consulted here.
	router := api.SetupRouter(a.Meta, a.Cfg, a.Engine, a.Folders)

	fmt.Fprintf(a.Out, "Listening on :%s\n", a.Cfg.ServerPort)
	return router.Run(fmt.Sprintf(":%s", a.Cfg.ServerPort))
}
