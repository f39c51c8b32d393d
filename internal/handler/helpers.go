package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/driveauth/internal/middleware"
	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
	"github.com/xxxsen/driveauth/internal/pkg/response"
)

const (
	msgSignupFieldsRequired = "Email, Username & Password sind erforderlich."
	msgCredentialsRequired  = "UUID, username und password sind erforderlich."
	msgTokenRequired        = "authToken ist erforderlich."
	msgIDRequired           = "UUID ist erforderlich."
	msgUnknownID            = "UUID ist nicht gültig."
	msgBadCredentials       = "Username oder Passwort sind falsch."
	msgEmailUsed            = "Email wurde bereits verwendet."
	msgInternal             = "Interner Fehler."
)

// handleError writes the client error for err. invalidMsg is the route's own
// message for missing parameters.
func handleError(c *gin.Context, err error, invalidMsg string) {
	switch {
	case err == nil:
		return
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, invalidMsg)
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusBadRequest, msgUnknownID)
	case errors.Is(err, appErr.ErrCredentialMismatch):
		response.Error(c, http.StatusBadRequest, msgBadCredentials)
	case errors.Is(err, appErr.ErrDuplicateEmail):
		response.Error(c, http.StatusBadRequest, msgEmailUsed)
	default:
		logRequestError(c, err)
		response.Error(c, http.StatusInternalServerError, msgInternal)
	}
}

func logRequestError(c *gin.Context, err error) {
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
}
