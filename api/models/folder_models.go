// api/models/folder_models.go
package models

// --- Folder Request Structs ---

// CreateFolderRequest defines the structure for creating a folder
type CreateFolderRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// RenameFolderRequest defines the structure for renaming a folder
type RenameFolderRequest struct {
	NewName string `json:"new_name" binding:"required,max=100"`
}
