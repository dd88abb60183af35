package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghostop14/kraken-api-agent/pkg/logging"
)

// allowedIPFilter rejects clients whose IP is not in the configured allow
// list. An empty list never installs this middleware.
func (a *KrakenAgent) allowedIPFilter() gin.HandlerFunc {
	allowed := make(map[string]bool, len(a.config.Security.AllowedIPs))
	for _, ip := range a.config.Security.AllowedIPs {
		allowed[ip] = true
	}

	return func(c *gin.Context) {
		if !allowed[c.ClientIP()] {
			logging.Warnf("web", "Request from unauthorized IP: %s", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"errcode": http.StatusForbidden,
				"errmsg":  "connections not authorized from your IP address",
			})
			return
		}
		c.Next()
	}
}

func corsHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Next()
	}
}
