package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	RealIPKey = "real_ip"

	PlatformCloudflare = "cloudflare"
)

// TrustProxies limits which peers may set the client address through
// X-Forwarded-For/X-Real-IP. An empty list trusts no proxy, so the socket
// address is used. platform "cloudflare" also honours CF-Connecting-IP.
func TrustProxies(engine *gin.Engine, proxies []string, platform string) error {
	if err := engine.SetTrustedProxies(proxies); err != nil {
		return err
	}
	switch strings.ToLower(platform) {
	case "":
		engine.TrustedPlatform = ""
	case PlatformCloudflare:
		engine.TrustedPlatform = gin.PlatformCloudflare
	default:
		return fmt.Errorf("unknown trusted platform %q", platform)
	}
	return nil
}

// RealIP stores the client IP resolved by gin into the context (key: "real_ip").
// Forwarding headers count only when the engine trusts the peer, see TrustProxies.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(RealIPKey, c.ClientIP())
		c.Next()
	}
}
