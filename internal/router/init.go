package router

import (
	"github.com/oksasatya/go-user-registry/internal/container"
	"github.com/oksasatya/go-user-registry/internal/interface/middleware"
	"github.com/oksasatya/go-user-registry/internal/router/modules"
)

// InitModules registers every feature module built from c.
// This function should be called once during application startup.
func InitModules(r *Registry, c *container.Container) {
	var allow middleware.AllowFunc
	if c.Config.RateLimitAllowPrivate {
		allow = middleware.AllowPrivateIP()
	}
	r.Add(modules.NewUserModule(c.UserHandler, c.Redis, c.Config.RateLimitPerMinute, allow))

	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c.Redis))
	}
}
