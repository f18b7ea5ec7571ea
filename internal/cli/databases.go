// internal/cli/databases.go
package cli

import (
	"context"
	"flag"
	"fmt"
)

// RunDatabases dispatches the databases subcommands:
// create, list, info, reset-password, delete, rename, search.
func (a *App) RunDatabases(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: eidetica databases <create|list|info|reset-password|delete|rename|search> [flags]")
	}
	command, rest := args[0], args[1:]

	fs := flag.NewFlagSet("databases "+command, flag.ContinueOnError)
	username := fs.String("username", "", "acting user")
	folderName := fs.String("folder", "", "folder scope (optional for info/reset-password/delete)")
	dbName := fs.String("name", "", "database name")
	newName := fs.String("new-name", "", "new database name (rename)")
	newUsername := fs.String("new-username", "", "new role username (rename, optional)")
	query := fs.String("query", "", "search query")
	force := fs.Bool("force", false, "skip confirmation prompts")
	dryRun := fs.Bool("dry-run", false, "report the action without performing it")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	user, err := a.resolveUser(ctx, *username)
	if err != nil {
		return err
	}

	switch command {
	case "create":
		if *folderName == "" {
			return fmt.Errorf("--folder is required")
		}
		record, err := a.Engine.Create(ctx, user.ID, *folderName, *dbName)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Database '%s' created successfully\n", record.Name)
		fmt.Fprintf(a.Out, "Username: %s\n", record.Username)
		fmt.Fprintf(a.Out, "Password: %s\n", record.Password)
		return nil

	case "list":
		if *folderName == "" {
			return fmt.Errorf("--folder is required")
		}
		databases, err := a.Engine.List(ctx, user.ID, *folderName)
		if err != nil {
			return err
		}
		if len(databases) == 0 {
			fmt.Fprintln(a.Out, "No databases found")
			return nil
		}
		for _, d := range databases {
			fmt.Fprintf(a.Out, "Name: %s\n", d.Name)
			fmt.Fprintf(a.Out, "Created: %s\n", d.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintln(a.Out, "---")
		}
		return nil

	case "info":
		info, err := a.Engine.Info(ctx, user.ID, *dbName, *folderName)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "name: %s\n", info.Name)
		fmt.Fprintf(a.Out, "username: %s\n", info.Username)
		fmt.Fprintf(a.Out, "password: %s\n", info.Password)
		fmt.Fprintf(a.Out, "connection_url: %s\n", info.ConnectionURL)
		fmt.Fprintf(a.Out, "created_at: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil

	case "reset-password":
		newPassword, err := a.Engine.ResetPassword(ctx, user.ID, *dbName, *folderName, *force)
		if err != nil {
			if a.reportCancelled(err) {
				return nil
			}
			return err
		}
		fmt.Fprintf(a.Out, "Password for database '%s' reset successfully\n", *dbName)
		fmt.Fprintf(a.Out, "New password: %s\n", newPassword)
		return nil

	case "delete":
		performed, err := a.Engine.Delete(ctx, user.ID, *dbName, *folderName, *force, *dryRun)
		if err != nil {
			if a.reportCancelled(err) {
				return nil
			}
			return err
		}
		if *dryRun {
			fmt.Fprintf(a.Out, "Would delete database '%s'\n", *dbName)
			return nil
		}
		if performed {
			fmt.Fprintf(a.Out, "Database '%s' deleted successfully\n", *dbName)
		}
		return nil

	case "rename":
		if *folderName == "" {
			return fmt.Errorf("--folder is required")
		}
		if err := a.Engine.Rename(ctx, user.ID, *folderName, *dbName, *newName, *newUsername); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Database '%s' updated to '%s'\n", *dbName, *newName)
		return nil

	case "search":
		databases, err := a.Engine.Search(ctx, user.ID, *query)
		if err != nil {
			return err
		}
		if len(databases) == 0 {
			fmt.Fprintln(a.Out, "No matching databases found")
			return nil
		}
		for _, d := range databases {
			fmt.Fprintf(a.Out, "%s\n", d.Name)
		}
		return nil

	default:
		return fmt.Errorf("unknown databases command: %s", command)
	}
}
