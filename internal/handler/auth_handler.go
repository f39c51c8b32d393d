package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/driveauth/internal/pkg/response"
	"github.com/xxxsen/driveauth/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login answers GET /auth/:key/:username/:password where key is the account id.
func (h *AuthHandler) Login(c *gin.Context) {
	result, err := h.auth.Login(c.Request.Context(), c.Param("key"), c.Param("username"), c.Param("password"))
	if err != nil {
		handleError(c, err, msgCredentialsRequired)
		return
	}
	response.Success(c, gin.H{"authToken": result.Token, "userData": result.Account})
}

// Session answers GET /auth/:key where key is a bearer token.
func (h *AuthHandler) Session(c *gin.Context) {
	profile, err := h.auth.ResolveSession(c.Request.Context(), c.Param("key"))
	if err != nil {
		handleError(c, err, msgTokenRequired)
		return
	}
	response.Success(c, gin.H{"userData": profile})
}
