package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tryohq/tryo-api/internal/application"
	"github.com/tryohq/tryo-api/internal/domain/entity"
	"github.com/tryohq/tryo-api/pkg/response"
	"github.com/tryohq/tryo-api/pkg/validation"
)

const maxUploadBytes = 10 << 20 // 10MB per file

type UserHandler struct {
	Svc    *application.IdentityService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.IdentityService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
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
	response.Success(c, http.StatusOK, u, "profile", nil)
}

// UpdateProfile takes a complete candidate record, not a patch. Every field in
// the body replaces the stored one; an omitted field clears it. The response
// body is the authoritative stored record and supersedes the client draft.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var rec entity.UserRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if rec.ID == "" {
		rec.ID = c.GetString("userID")
	}
	stored, err := h.Svc.UpsertProfile(c.Request.Context(), rec)
	if err != nil {
		writeUpsertError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stored, "profile updated", nil)
}

// PublicProfile serves the post-card author lookup by display name.
// Names are not unique; this is display data, never an auth surface.
func (h *UserHandler) PublicProfile(c *gin.Context) {
	name := c.Param("name")
	p, err := h.Svc.PublicProfileByName(c.Request.Context(), name)
	if err != nil {
		response.Error[any](c, http.StatusBadGateway, "profile lookup failed", nil)
		return
	}
	if p == nil {
		response.Error[any](c, http.StatusNotFound, "profile not found", nil)
		return
	}
	response.Success(c, http.StatusOK, p, "profile", nil)
}

// UploadFile stores a CV, portfolio, or avatar in GCS and returns its URL.
// The client carries the URL into its next profile upsert; nothing is written
// to the record here.
func (h *UserHandler) UploadFile(c *gin.Context) {
	uid := c.GetString("userID")
	kind := c.PostForm("kind")

	fh, err := c.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing file", nil)
		return
	}
	if fh.Size > maxUploadBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "file too large", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadProfileFile(c.Request.Context(), uid, kind, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, application.ErrInvalidUploadKind) {
			response.Error[any](c, http.StatusBadRequest, "invalid upload kind", nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("user_id", uid).Error("upload failed")
		}
		response.Error[any](c, http.StatusBadGateway, "upload failed", nil)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"kind": kind, "url": url}, "file uploaded", nil)
}
