// api/router.go
package api

import (
	"database/sql"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/eidetica/eidetica/api/handlers"
	"github.com/eidetica/eidetica/api/middleware"
	"github.com/eidetica/eidetica/config"
	"github.com/eidetica/eidetica/internal/folder"
	"github.com/eidetica/eidetica/internal/provision"
)

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(metaDB *sql.DB, cfg *config.Config, engine *provision.Engine, folders *folder.Manager) *gin.Engine {
	router := gin.Default() // Includes Logger and Recovery

	router.Use(cors.Default())
	router.Use(middleware.RequestID())

	// Setting up a rate-limiter
	ratelimiter := middleware.NewRateLimiter()
	router.Use(middleware.RateLimitMiddleware(ratelimiter))
	// Error handler runs after Logger/Recovery but wraps the handlers.
	router.Use(middleware.ErrorHandler())

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(metaDB, cfg)
	folderHandler := handlers.NewFolderHandler(folders)
	dbHandler := handlers.NewDatabaseHandler(engine)

	// --- Public Routes ---
	router.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
	}

	// --- Protected Routes ---
	apiRoutes := router.Group("/api/v1")
	apiRoutes.Use(middleware.AuthMiddleware(cfg))
	{
		apiRoutes.GET("/folders", folderHandler.ListFolders)
		apiRoutes.POST("/folders", folderHandler.CreateFolder)
		apiRoutes.GET("/folders/search", folderHandler.SearchFolders)
		apiRoutes.GET("/folders/:folder_name", folderHandler.GetFolder)
		apiRoutes.PUT("/folders/:folder_name", folderHandler.RenameFolder)
		apiRoutes.DELETE("/folders/:folder_name", folderHandler.DeleteFolder)

		apiRoutes.GET("/folders/:folder_name/databases", dbHandler.ListDatabases)
		apiRoutes.POST("/folders/:folder_name/databases", dbHandler.CreateDatabase)
		apiRoutes.GET("/folders/:folder_name/databases/:db_name", dbHandler.GetDatabaseInfo)
		apiRoutes.PUT("/folders/:folder_name/databases/:db_name", dbHandler.RenameDatabase)
		apiRoutes.DELETE("/folders/:folder_name/databases/:db_name", dbHandler.DeleteDatabase)
		apiRoutes.POST("/folders/:folder_name/databases/:db_name/reset-password", dbHandler.ResetDatabasePassword)

		apiRoutes.GET("/databases/search", dbHandler.SearchDatabases)
	}

	return router
}
