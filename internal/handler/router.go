package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/driveauth/internal/middleware"
)

type RouterDeps struct {
	Auth           *AuthHandler
	Users          *UserHandler
	SignupCooldown time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.POST("/user/:email/:username/:password", middleware.RateLimit(deps.SignupCooldown), deps.Users.Signup)
	api.GET("/user/verify/:email/:token", deps.Users.Verify)
	api.POST("/user/verify/:email/:token", deps.Users.Verify)
	api.GET("/user/:uuid", deps.Users.Profile)
	api.DELETE("/user/:uuid/:username/:password", deps.Users.Delete)

	api.GET("/auth/:key", deps.Auth.Session)
	api.GET("/auth/:key/:username/:password", deps.Auth.Login)
}
