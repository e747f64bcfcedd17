package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-taskdesk/internal/services"
)

type Handler interface {
	HandleSignup(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleMe(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleRequestLogger(c *gin.Context)
	HandleHealth(c *gin.Context)

	HandleListEmployees(c *gin.Context)
	HandleListAllTasks(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleListOwnTasks(c *gin.Context)
	HandleUpdateOwnTaskStatus(c *gin.Context)
	HandleGetStats(c *gin.Context)
}

// StorageChecker reports on the storage backend for the health route.
type StorageChecker interface {
	Driver() string
	Ping(ctx context.Context) error
}

type handlerImpl struct {
	logger  zerolog.Logger
	auth    services.AuthService
	tasks   services.TaskService
	storage StorageChecker
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	taskService services.TaskService,
	storage StorageChecker,
) Handler {
	return &handlerImpl{
		logger:  logger,
		auth:    authService,
		tasks:   taskService,
		storage: storage,
	}
}

// Register mounts every route of the API on router.
func Register(router gin.IRouter, h Handler) {
	router = router.Group("/api")
	router.GET("/test", h.HandleHealth)

	authRouter := router.Group("/auth")
	authRouter.POST("/signup", h.HandleSignup)
	authRouter.POST("/login", h.HandleLogin)
	authRouter.POST("/refresh", h.HandleRefresh)
	authRouter.GET("/me", h.HandleAuthMiddleware, h.HandleMe)
	authRouter.POST("/logout", h.HandleAuthMiddleware, h.HandleLogout)

	tasksRouter := router.Group("/tasks", h.HandleAuthMiddleware)
	tasksRouter.GET("/admin/employees", h.HandleListEmployees)
	tasksRouter.GET("/admin/tasks", h.HandleListAllTasks)
	tasksRouter.POST("/admin/tasks", h.HandleCreateTask)
	tasksRouter.GET("/employee/tasks", h.HandleListOwnTasks)
	tasksRouter.PUT("/employee/tasks/:id", h.HandleUpdateOwnTaskStatus)
	tasksRouter.GET("/stats", h.HandleGetStats)
}
