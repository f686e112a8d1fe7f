package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tasktracker/internal/handler"
	"tasktracker/internal/mq"
	"tasktracker/internal/service/auth"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *handler.AuthHandler,
	taskHandler *handler.TaskHandler,
	denylist auth.TokenDenylist,
	jwtSecret string,
	logger *zap.Logger,
	db *pgxpool.Pool,
	publisher *mq.Publisher,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogMiddleware(logger))

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	users := r.Group("/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)

	// Protected
	usersAuth := r.Group("/users")
	usersAuth.Use(AuthMiddleware(jwtSecret, denylist))
	{
		usersAuth.POST("/logout", authHandler.Logout)
		usersAuth.POST("/change_role/:id", authHandler.ChangeRole)
		usersAuth.POST("/change_username/:id", authHandler.ChangeUsername)
		usersAuth.POST("/change_password", authHandler.ChangePassword)
	}

	// Task reads are public, mutations require a token.
	tasks := r.Group("/tasks")
	tasks.GET("/get_task/:id", taskHandler.GetTask)
	tasks.GET("/get_tasks", taskHandler.GetTasks)
	tasks.GET("/search_task", taskHandler.SearchTask)
	tasks.GET("/task_history/:id", taskHandler.TaskHistory)
	tasks.PATCH("/next_status/:id", taskHandler.NextStatus)

	tasksAuth := r.Group("/tasks")
	tasksAuth.Use(AuthMiddleware(jwtSecret, denylist))
	{
		tasksAuth.POST("/create_task", taskHandler.CreateTask)
		tasksAuth.POST("/create_child_task/:id", taskHandler.CreateChildTask)
		tasksAuth.PUT("/update_task/:id", taskHandler.UpdateTask)
		tasksAuth.DELETE("/delete_task/:id", taskHandler.DeleteTask)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
