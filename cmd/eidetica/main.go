package main

import (
	"context"
	"fmt"
	"os"

	"github.com/eidetica/eidetica/internal/cli"
	"github.com/eidetica/eidetica/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

const usage = `Usage: eidetica <command> [flags]

Commands:
  users      manage user accounts (create, list, update, delete, check, login)
  folders    manage folders (create, list, rename, delete, search, info)
  databases  manage provisioned databases (create, list, info, reset-password, delete, rename, search)
  serve      run the HTTP API
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	app, err := cli.NewApp()
	if err != nil {
		customLog.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	ctx := context.Background()

	switch os.Args[1] {
	case "users":
		err = app.RunUsers(ctx, os.Args[2:])
	case "folders":
		err = app.RunFolders(ctx, os.Args[2:])
	case "databases":
		err = app.RunDatabases(ctx, os.Args[2:])
	case "serve":
		err = app.RunServe()
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
