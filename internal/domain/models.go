// internal/domain/models.go
package domain

import (
	"fmt"
	"time"
)

// Roles assignable to users.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User defines the structure for user data in the metadata DB
type User struct {
	ID           int64
	Username     string
	PasswordHash string // bcrypt hash, never the plaintext
	Role         string
	CreatedAt    time.Time
}

// Folder is a per-user namespace grouping provisioned databases.
// (user_id, name) is unique; deleting a folder cascades to its databases.
type Folder struct {
	ID          int64
	UserID      int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// Database represents one provisioned PostgreSQL database plus the role that
// owns it. Name is unique within the owning folder, not globally.
//
// Password holds the generated role password in plaintext so operators can
// retrieve working credentials later via the info command. Storing it
// unencrypted is a known weakness of this tool; treat the metadata DB file
// accordingly and keep all access to the field going through ConnectionURL
// or explicit credential display paths.
type Database struct {
	ID        int64
	FolderID  int64
	Name      string
	Username  string
	Password  string
	CreatedAt time.Time
}

// ConnectionURL builds the libpq-style URL operators use to reach the
// provisioned database on the given cluster host.
func (d *Database) ConnectionURL(host string) string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", d.Username, d.Password, host, d.Name)
}
