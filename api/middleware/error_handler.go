// api/middleware/error_handler.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10" // Import validator for binding errors

	"github.com/eidetica/eidetica/internal/auth"
	"github.com/eidetica/eidetica/internal/folder"
	"github.com/eidetica/eidetica/internal/provision"
	"github.com/eidetica/eidetica/internal/storage"
)

// ErrorHandler creates a Gin middleware for centralized error handling.
// Handlers attach sentinel errors via c.Error; this maps them to HTTP
// statuses in one place.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request using subsequent handlers
		c.Next()

		// Check if any errors were attached during handler execution
		if len(c.Errors) == 0 {
			return
		}

		// We only handle the last error for the response.
		err := c.Errors.Last().Err

		customLog.Printf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		// --- Map error to HTTP status code and user message ---
		var statusCode int
		var userMessage string

		if errors.Is(err, storage.ErrUserNotFound) ||
			errors.Is(err, storage.ErrFolderNotFound) ||
			errors.Is(err, storage.ErrDatabaseNotFound) {
			statusCode = http.StatusNotFound
			userMessage = err.Error()
		} else if errors.Is(err, storage.ErrUsernameExists) ||
			errors.Is(err, storage.ErrFolderExists) ||
			errors.Is(err, storage.ErrDatabaseExists) {
			statusCode = http.StatusConflict
			userMessage = err.Error()
		} else if errors.Is(err, storage.ErrInvalidCredentials) {
			statusCode = http.StatusUnauthorized
			userMessage = "Invalid username or password."
		} else if errors.Is(err, auth.ErrTokenMalformed) ||
			errors.Is(err, auth.ErrTokenInvalid) ||
			errors.Is(err, auth.ErrTokenClaimsInvalid) ||
			errors.Is(err, auth.ErrUnexpectedSigningMethod) {
			statusCode = http.StatusUnauthorized
			userMessage = "Invalid or malformed authentication token."
		} else if errors.Is(err, auth.ErrTokenExpired) {
			statusCode = http.StatusUnauthorized
			userMessage = "Authentication token has expired."
		} else if errors.Is(err, provision.ErrInvalidName) ||
			errors.Is(err, folder.ErrEmptyName) {
			statusCode = http.StatusBadRequest
			userMessage = err.Error()
		} else if errors.Is(err, provision.ErrClusterNotConfigured) {
			statusCode = http.StatusInternalServerError
			userMessage = "Database cluster is not configured on this server."
		} else if validationErrs, ok := err.(validator.ValidationErrors); ok {
			// Handle validation errors from c.ShouldBindJSON
			statusCode = http.StatusBadRequest
			userMessage = "Validation failed. Please check your input."
			for _, fe := range validationErrs {
				customLog.Printf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
			}
		} else {
			// Assume internal server error for unexpected types
			statusCode = http.StatusInternalServerError
			userMessage = "An unexpected internal server error occurred."
			customLog.Warnf("Unhandled error type: %T, Error: %v", err, err)
		}

		// Abort execution and send JSON response
		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, gin.H{"error": userMessage})
		} else {
			customLog.Printf("[ErrorHandler] Warning: Response already written before handling error.")
		}
	}
}
