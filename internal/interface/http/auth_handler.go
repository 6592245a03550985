package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tryohq/tryo-api/internal/application"
	"github.com/tryohq/tryo-api/internal/domain/entity"
	"github.com/tryohq/tryo-api/pkg/helpers"
	"github.com/tryohq/tryo-api/pkg/response"
	"github.com/tryohq/tryo-api/pkg/validation"
)

type AuthHandler struct {
	Svc     *application.IdentityService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *application.IdentityService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type identityRequest struct {
	Provider   string `json:"provider" binding:"required,oneof=google facebook"`
	Identifier string `json:"identifier" binding:"required"`
}

// Resolve answers the first screen of the sign-in flow: does this identity
// already have an account. Unknown identities get a pre-allocated registration
// id so the client can tie uploads to the record before it exists.
func (h *AuthHandler) Resolve(c *gin.Context) {
	var req identityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Resolve(c.Request.Context(), entity.Provider(req.Provider), req.Identifier)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid identity", nil)
		return
	}
	if res.Found {
		response.Success(c, http.StatusOK, gin.H{
			"found":   true,
			"profile": res.Profile,
		}, "identity resolved", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"found":           false,
		"registration_id": res.RegistrationID,
	}, "identity resolved", nil)
}

// Login is the "continue as {name}" path: the stored record is reused as-is.
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Login(c.Request.Context(), entity.Provider(req.Provider), req.Identifier)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, application.ErrInvalidIdentity):
			response.Error[any](c, http.StatusBadRequest, "invalid identity", nil)
		default:
			response.Error[any](c, http.StatusBadGateway, "identity lookup failed", nil)
		}
		return
	}
	pair, err := h.Svc.IssueSession(c.Request.Context(), u)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "session issue failed", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, u, "login successful", map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

// Register persists the registration wizard's candidate record and opens a
// session. The same upsert backs PUT /profile; a re-register of an existing
// identity simply replaces the stored fields.
func (h *AuthHandler) Register(c *gin.Context) {
	var rec entity.UserRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	stored, err := h.Svc.UpsertProfile(c.Request.Context(), rec)
	if err != nil {
		writeUpsertError(c, err)
		return
	}
	pair, err := h.Svc.IssueSession(c.Request.Context(), stored)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "session issue failed", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusCreated, stored, "registered", map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed", map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.Svc.Logout(c.Request.Context(), c.GetString("userID"))
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

// DeleteAccount removes the caller's record and blacklists the identity for
// good. The provider pair comes from the stored record, never from the request.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		response.Error[any](c, http.StatusBadGateway, "profile lookup failed", nil)
		return
	}
	deleted, err := h.Svc.DeleteAccount(c.Request.Context(), u.Provider, u.ProviderID)
	if err != nil {
		response.Error[any](c, http.StatusBadGateway, "account delete failed", nil)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": deleted}, "account deleted", nil)
}

type verifyConfirmRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}

func (h *AuthHandler) VerifyInit(c *gin.Context) {
	uid := c.GetString("userID")
	already, err := h.Svc.VerifyInit(c.Request.Context(), uid)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "verification init failed", nil)
		return
	}
	if already {
		response.Success[any](c, http.StatusOK, map[string]any{"verified": true}, "email already verified", nil)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"sent": true}, "verification code sent", nil)
}

func (h *AuthHandler) VerifyConfirm(c *gin.Context) {
	uid := c.GetString("userID")
	var req verifyConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.VerifyConfirm(c.Request.Context(), uid, req.Code); err != nil {
		switch {
		case errors.Is(err, application.ErrVerifyNotRequested):
			response.Error[any](c, http.StatusBadRequest, "no verification in progress", nil)
		case errors.Is(err, application.ErrVerifyCodeInvalid):
			response.Error[any](c, http.StatusUnauthorized, "invalid verification code", nil)
		default:
			response.Error[any](c, http.StatusInternalServerError, "verification failed", nil)
		}
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"verified": true}, "email verified", nil)
}

func writeUpsertError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrIdentityBlacklisted):
		response.Error[any](c, http.StatusForbidden, "identity blacklisted", nil)
	case errors.Is(err, application.ErrInvalidProfile):
		response.Error[any](c, http.StatusBadRequest, "invalid profile", nil)
	default:
		response.Error[any](c, http.StatusBadGateway, "profile store failed", nil)
	}
}
