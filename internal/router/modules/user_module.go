package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-user-registry/internal/interface/http"
	"github.com/oksasatya/go-user-registry/internal/interface/middleware"
)

// UserModule registers the user CRUD and search routes:
//
//	POST   /users
//	GET    /users
//	GET    /users/:id
//	PUT    /users/:id
//	PATCH  /users/:id
//	DELETE /users/:id
//	GET    /search/users
type UserModule struct {
	Handler   *handlers.UserHandler
	Redis     *redis.Client
	PerMinute int
	Allow     middleware.AllowFunc
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, perMinute int, allow middleware.AllowFunc) *UserModule {
	return &UserModule{Handler: h, Redis: rdb, PerMinute: perMinute, Allow: allow}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	limiter := middleware.RateLimit(m.Redis, m.PerMinute, time.Minute, middleware.KeyByIP(), m.Allow)
	// search is limited to a fifth of the per-IP quota
	searchLimiter := middleware.RateLimit(m.Redis, m.PerMinute/5, time.Minute, middleware.KeyByIPAndPath(), m.Allow)

	users := rg.Group("/users", limiter)
	{
		users.POST("", m.Handler.Create)
		users.GET("", m.Handler.List)
		users.GET("/:id", m.Handler.Get)
		users.PUT("/:id", m.Handler.Replace)
		users.PATCH("/:id", m.Handler.Patch)
		users.DELETE("/:id", m.Handler.Delete)
	}
	rg.GET("/search/users", limiter, searchLimiter, m.Handler.SearchUsers)
}
