// internal/cli/folders.go
package cli

import (
	"context"
	"flag"
	"fmt"
)

// RunFolders dispatches the folders subcommands:
// create, list, rename, delete, search, info.
func (a *App) RunFolders(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: eidetica folders <create|list|rename|delete|search|info> [flags]")
	}
	command, rest := args[0], args[1:]

	fs := flag.NewFlagSet("folders "+command, flag.ContinueOnError)
	username := fs.String("username", "", "acting user")
	name := fs.String("name", "", "folder name")
	newName := fs.String("new-name", "", "new folder name (rename)")
	description := fs.String("description", "", "folder description (create)")
	query := fs.String("query", "", "search query")
	force := fs.Bool("force", false, "skip confirmation prompts")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	user, err := a.resolveUser(ctx, *username)
	if err != nil {
		return err
	}

	switch command {
	case "create":
		f, err := a.Folders.Create(ctx, user.ID, *name, *description)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Folder '%s' created successfully\n", f.Name)
		return nil

	case "list":
		folders, err := a.Folders.List(ctx, user.ID)
		if err != nil {
			return err
		}
		if len(folders) == 0 {
			fmt.Fprintln(a.Out, "No folders found")
			return nil
		}
		fmt.Fprintln(a.Out, "Your folders:")
		for _, f := range folders {
			fmt.Fprintf(a.Out, "%d: %s (created: %s)\n", f.ID, f.Name, f.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil

	case "rename":
		if err := a.Folders.Rename(ctx, user.ID, *name, *newName); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Folder renamed to '%s' successfully\n", *newName)
		return nil

	case "delete":
		if _, err := a.Folders.Delete(ctx, user.ID, *name, *force); err != nil {
			if a.reportCancelled(err) {
				return nil
			}
			return err
		}
		fmt.Fprintf(a.Out, "Folder '%s' deleted successfully\n", *name)
		return nil

	case "search":
		folders, err := a.Folders.Search(ctx, user.ID, *query)
		if err != nil {
			return err
		}
		if len(folders) == 0 {
			fmt.Fprintln(a.Out, "No matching folders found")
			return nil
		}
		for _, f := range folders {
			fmt.Fprintf(a.Out, "%s\n", f.Name)
		}
		return nil

	case "info":
		info, err := a.Folders.GetInfo(ctx, user.ID, *name)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "name: %s\n", info.Folder.Name)
		fmt.Fprintf(a.Out, "description: %s\n", info.Folder.Description)
		fmt.Fprintf(a.Out, "databases: %d\n", info.DatabaseCount)
		fmt.Fprintf(a.Out, "created_at: %s\n", info.Folder.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil

	default:
		return fmt.Errorf("unknown folders command: %s", command)
	}
}
