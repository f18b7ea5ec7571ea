// api/handlers/database_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eidetica/eidetica/api/models"
	"github.com/eidetica/eidetica/internal/provision"
)

// DatabaseHandler holds dependencies for database lifecycle handlers.
type DatabaseHandler struct {
	Engine *provision.Engine
}

// NewDatabaseHandler creates a new DatabaseHandler.
func NewDatabaseHandler(engine *provision.Engine) *DatabaseHandler {
	return &DatabaseHandler{Engine: engine}
}

// CreateDatabase provisions a new database inside a folder and returns the
// generated credentials once.
func (h *DatabaseHandler) CreateDatabase(c *gin.Context) {
	userID := c.MustGet("userID").(int64) // From AuthMiddleware
	folderName := c.Param("folder_name")

	var req models.CreateDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	record, err := h.Engine.Create(c.Request.Context(), userID, folderName, req.DBName)
	if err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: provisioned database '%s' in folder '%s' for UserID %d", record.Name, folderName, userID)
	c.JSON(http.StatusCreated, models.CreateDatabaseResponse{
		Message:  "Database created successfully",
		DBName:   record.Name,
		Username: record.Username,
		Password: record.Password,
	})
}

// ListDatabases returns the database records in a folder.
func (h *DatabaseHandler) ListDatabases(c *gin.Context) {
	userID := c.MustGet("userID").(int64)
	folderName := c.Param("folder_name")

	databases, err := h.Engine.List(c.Request.Context(), userID, folderName)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// Strip credentials from list output; the info endpoint reports them.
	type entry struct {
		Name      string `json:"name"`
		CreatedAt string `json:"created_at"`
	}
	out := make([]entry, 0, len(databases))
	for _, d := range databases {
		out = append(out, entry{Name: d.Name, CreatedAt: d.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	c.JSON(http.StatusOK, gin.H{"databases": out})
}

// GetDatabaseInfo returns the stored record, credentials and connection URL.
func (h *DatabaseHandler) GetDatabaseInfo(c *gin.Context) {
	userID := c.MustGet("userID").(int64)
	folderName := c.Param("folder_name")
	dbName := c.Param("db_name")

	info, err := h.Engine.Info(c.Request.Context(), userID, dbName, folderName)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// ResetDatabasePassword rotates the role password and returns the new one.
func (h *DatabaseHandler) ResetDatabasePassword(c *gin.Context) {
	userID := c.MustGet("userID").(int64)
	folderName := c.Param("folder_name")
	dbName := c.Param("db_name")

	// The request itself is the confirmation; there is no prompt over HTTP.
	newPassword, err := h.Engine.ResetPassword(c.Request.Context(), userID, dbName, folderName, true)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully", "password": newPassword})
}

// DeleteDatabase tears down a provisioned database. ?dry_run=true reports
// the intended action without mutating anything.
func (h *DatabaseHandler) DeleteDatabase(c *gin.Context) {
	userID := c.MustGet("userID").(int64)
	folderName := c.Param("folder_name")
	dbName := c.Param("db_name")
	dryRun, _ := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))

	performed, err := h.Engine.Delete(c.Request.Context(), userID, dbName, folderName, true, dryRun)
	if err != nil {
		_ = c.Error(err)
		return
	}

	message := "Database deleted successfully"
	if dryRun {
		message = "Dry run: database would be deleted"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "performed": performed && !dryRun})
}

// RenameDatabase changes a database's name on the cluster and locally.
func (h *DatabaseHandler) RenameDatabase(c *gin.Context) {
	userID := c.MustGet("userID").(int64)
	folderName := c.Param("folder_name")
	dbName := c.Param("db_name")

	var req models.RenameDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.Engine.Rename(c.Request.Context(), userID, folderName, dbName, req.NewName, req.NewUsername); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database renamed successfully", "name": req.NewName})
}

// SearchDatabases matches the user's database names against the q parameter,
// across all folders.
func (h *DatabaseHandler) SearchDatabases(c *gin.Context) {
	userID := c.MustGet("userID").(int64)
	query := c.Query("q")

	databases, err := h.Engine.Search(c.Request.Context(), userID, query)
	if err != nil {
		_ = c.Error(err)
		return
	}

	type entry struct {
		Name      string `json:"name"`
		CreatedAt string `json:"created_at"`
	}
	out := make([]entry, 0, len(databases))
	for _, d := range databases {
		out = append(out, entry{Name: d.Name, CreatedAt: d.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	c.JSON(http.StatusOK, gin.H{"databases": out})
}
