package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
	"github.com/xxxsen/driveauth/internal/pkg/response"
	"github.com/xxxsen/driveauth/internal/service"
)

type UserHandler struct {
	verify     *service.VerificationService
	auth       *service.AuthService
	successURL string
	errorURL   string
}

func NewUserHandler(verify *service.VerificationService, auth *service.AuthService, successURL, errorURL string) *UserHandler {
	return &UserHandler{verify: verify, auth: auth, successURL: successURL, errorURL: errorURL}
}

func (h *UserHandler) Signup(c *gin.Context) {
	err := h.verify.RequestSignup(c.Request.Context(), c.Param("email"), c.Param("username"), c.Param("password"))
	if err != nil {
		handleError(c, err, msgSignupFieldsRequired)
		return
	}
	response.Success(c, nil)
}

// Verify is reached from the link in the verification mail and always ends in
// a redirect to the frontend.
func (h *UserHandler) Verify(c *gin.Context) {
	ctx := c.Request.Context()
	email := c.Param("email")
	accountID, err := h.verify.ConfirmVerification(ctx, email, c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, appErr.ErrNotFound),
			errors.Is(err, appErr.ErrTokenMismatch),
			errors.Is(err, appErr.ErrExpired),
			errors.Is(err, appErr.ErrDuplicateEmail):
			logutil.GetLogger(ctx).Info("verification rejected", zap.String("email", email), zap.Error(err))
		default:
			logRequestError(c, err)
		}
		response.Redirect(c, h.errorURL)
		return
	}
	logutil.GetLogger(ctx).Debug("verification accepted", zap.String("account_id", accountID))
	response.Redirect(c, h.successURL)
}

func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.auth.Profile(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		handleError(c, err, msgIDRequired)
		return
	}
	response.Success(c, gin.H{"userData": profile})
}

func (h *UserHandler) Delete(c *gin.Context) {
	err := h.auth.DeleteAccount(c.Request.Context(), c.Param("uuid"), c.Param("username"), c.Param("password"))
	if err != nil {
		handleError(c, err, msgCredentialsRequired)
		return
	}
	response.Success(c, nil)
}
