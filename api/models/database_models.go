// api/models/database_models.go
package models

// --- Database Request Structs ---

// CreateDatabaseRequest defines the structure for provisioning a database
type CreateDatabaseRequest struct {
	DBName string `json:"db_name" binding:"required"`
}

// RenameDatabaseRequest defines the structure for renaming a database.
// NewUsername is optional; the recorded role username is kept when empty.
type RenameDatabaseRequest struct {
	NewName     string `json:"new_name" binding:"required"`
	NewUsername string `json:"new_username"`
}

// --- Database Response Structs ---

// CreateDatabaseResponse returns the generated credentials. This is the one
// time they are handed out by the create path; afterwards only the info
// endpoint reports them.
type CreateDatabaseResponse struct {
	Message  string `json:"message"`
	DBName   string `json:"db_name"`
	Username string `json:"username"`
	Password string `json:"password"`
}
