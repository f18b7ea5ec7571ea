// internal/cli/users.go
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/eidetica/eidetica/internal/auth"
	"github.com/eidetica/eidetica/internal/domain"
	"github.com/eidetica/eidetica/internal/gate"
	"github.com/eidetica/eidetica/internal/storage"
)

// RunUsers dispatches the users subcommands:
// create, list, update, delete, check, login.
func (a *App) RunUsers(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: eidetica users <create|list|update|delete|check|login> [flags]")
	}
	command, rest := args[0], args[1:]

	fs := flag.NewFlagSet("users "+command, flag.ContinueOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password (prompted when omitted)")
	role := fs.String("role", "", "user role (admin|user)")
	force := fs.Bool("force", false, "skip confirmation prompts")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	switch command {
	case "create":
		if *username == "" {
			return fmt.Errorf("--username is required")
		}
		pw := *password
		if pw == "" {
			var err error
			if pw, err = promptPassword("Enter password: "); err != nil {
				return err
			}
		}
		r := *role
		if r == "" {
			r = domain.RoleUser
		}
		hash, err := auth.HashPassword(pw)
		if err != nil {
			return err
		}
		if _, err := storage.CreateUser(ctx, a.Meta, *username, hash, r); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "User '%s' created successfully\n", *username)
		return nil

	case "list":
		users, err := storage.ListUsers(ctx, a.Meta, *role)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Fprintln(a.Out, "No users found")
			return nil
		}
		for _, u := range users {
			fmt.Fprintf(a.Out, "%s (%s)\n", u.Username, u.Role)
		}
		return nil

	case "update":
		if *role == "" {
			return fmt.Errorf("--role is required for update")
		}
		if err := storage.UpdateUserRole(ctx, a.Meta, *username, *role); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "User '%s' updated successfully\n", *username)
		return nil

	case "delete":
		// Deleting a user cascades to every folder and database record they
		// own; always ask unless forced.
		if !gate.Allow(a.Gate, *force, fmt.Sprintf("Are you sure you want to delete user '%s'?", *username)) {
			fmt.Fprintln(a.Out, "Cancelled")
			return nil
		}
		if err := storage.DeleteUser(ctx, a.Meta, *username); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "User '%s' deleted successfully\n", *username)
		return nil

	case "check":
		_, err := storage.FindUserByUsername(ctx, a.Meta, *username)
		exists := err == nil
		if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
			return err
		}
		fmt.Fprintf(a.Out, "User '%s' exists: %t\n", *username, exists)
		return nil

	case "login":
		user, err := a.resolveUser(ctx, *username)
		if err != nil {
			return storage.ErrInvalidCredentials
		}
		pw := *password
		if pw == "" {
			if pw, err = promptPassword("Enter password: "); err != nil {
				return err
			}
		}
		if !auth.CheckPasswordHash(pw, user.PasswordHash) {
			return storage.ErrInvalidCredentials
		}
		fmt.Fprintf(a.Out, "Login successful for user '%s'\n", user.Username)
		return nil

	default:
		return fmt.Errorf("unknown users command: %s", command)
	}
}
