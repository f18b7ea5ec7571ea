// api/handlers/folder_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eidetica/eidetica/api/models"
	"github.com/eidetica/eidetica/internal/folder"
)

// FolderHandler holds dependencies for folder management handlers.
type FolderHandler struct {
	Folders *folder.Manager
}

// NewFolderHandler creates a new FolderHandler.
func NewFolderHandler(folders *folder.Manager) *FolderHandler {
	return &FolderHandler{Folders: folders}
}

// ListFolders returns all folders owned by the authenticated user.
func (h *FolderHandler) ListFolders(c *gin.Context) {
	userID := c.MustGet("userID").(int64) // From AuthMiddleware

	folders, err := h.Folders.List(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

// CreateFolder creates a new folder for the authenticated user.
func (h *FolderHandler) CreateFolder(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	var req models.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	f, err := h.Folders.Create(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Folder created successfully", "folder": f})
}

// GetFolder returns a folder with its database count.
func (h *FolderHandler) GetFolder(c *gin.Context) {
	userID := c.MustGet("userID").(int64)
	name := c.Param("folder_name")

	info, err := h.Folders.GetInfo(c.Request.Context(), userID, name)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// RenameFolder changes a folder's name.
func (h *FolderHandler) RenameFolder(c *gin.Context) {
	userID := c.MustGet("userID").(int64)
	name := c.Param("folder_name")

	var req models.RenameFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.Folders.Rename(c.Request.Context(), userID, name, req.NewName); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Folder renamed successfully", "name": req.NewName})
}

// DeleteFolder deletes a folder, tearing down its provisioned databases.
// The HTTP surface has no interactive prompt, so the request itself is the
// confirmation (force).
func (h *FolderHandler) DeleteFolder(c *gin.Context) {
	userID := c.MustGet("userID").(int64)
	name := c.Param("folder_name")

	if _, err := h.Folders.Delete(c.Request.Context(), userID, name, true); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Folder deleted successfully"})
}

// SearchFolders matches the user's folder names against the q parameter.
func (h *FolderHandler) SearchFolders(c *gin.Context) {
	userID := c.MustGet("userID").(int64)
	query := c.Query("q")

	folders, err := h.Folders.Search(c.Request.Context(), userID, query)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}
