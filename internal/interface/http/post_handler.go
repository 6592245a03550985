package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tryohq/tryo-api/internal/application"
	"github.com/tryohq/tryo-api/internal/domain/entity"
	"github.com/tryohq/tryo-api/pkg/response"
	"github.com/tryohq/tryo-api/pkg/validation"
)

type PostHandler struct {
	Svc    *application.PostService
	Logger *logrus.Logger
}

func NewPostHandler(svc *application.PostService, logger *logrus.Logger) *PostHandler {
	return &PostHandler{Svc: svc, Logger: logger}
}

type createPostRequest struct {
	ProjectName  string   `json:"project_name" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	Deadline     string   `json:"deadline"`
	ImageURL     string   `json:"image_url"`
	Field        string   `json:"field"`
	Stage        string   `json:"stage"`
	Compensation string   `json:"compensation"`
	Roles        []string `json:"roles"`
}

type enhanceRequest struct {
	Description string `json:"description" binding:"required"`
}

// List serves the board feed. field filters by category; trending restricts to
// the recent window.
func (h *PostHandler) List(c *gin.Context) {
	field := entity.ProjectField(c.Query("field"))
	trending := c.Query("trending") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	posts, err := h.Svc.ListPosts(c.Request.Context(), field, trending, limit)
	if err != nil {
		response.Error[any](c, http.StatusBadGateway, "post listing failed", nil)
		return
	}
	response.Success(c, http.StatusOK, posts, "posts", map[string]any{"count": len(posts)})
}

func (h *PostHandler) Get(c *gin.Context) {
	p, err := h.Svc.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error[any](c, http.StatusBadGateway, "post lookup failed", nil)
		return
	}
	if p == nil {
		response.Error[any](c, http.StatusNotFound, "post not found", nil)
		return
	}
	response.Success(c, http.StatusOK, p, "post", nil)
}

func (h *PostHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	posts, err := h.Svc.SearchPosts(c.Request.Context(), q, size)
	if err != nil {
		response.Error[any](c, http.StatusBadGateway, "post search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, posts, "posts", map[string]any{"count": len(posts)})
}

// Create posts a project under the caller's display name.
func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	post, err := h.Svc.CreatePost(c.Request.Context(), application.CreatePostInput{
		FounderName:  c.GetString("userName"),
		ProjectName:  req.ProjectName,
		Deadline:     req.Deadline,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		Field:        entity.ProjectField(req.Field),
		Stage:        entity.ProjectStage(req.Stage),
		Compensation: req.Compensation,
		Roles:        req.Roles,
	})
	if err != nil {
		if errors.Is(err, application.ErrInvalidPost) {
			response.Error[any](c, http.StatusBadRequest, "invalid post", nil)
			return
		}
		response.Error[any](c, http.StatusBadGateway, "post create failed", nil)
		return
	}
	response.Success(c, http.StatusCreated, post, "post created", nil)
}

// Enhance rewrites a draft description. Failures return the original text so
// the wizard never blocks on the model.
func (h *PostHandler) Enhance(c *gin.Context) {
	var req enhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	enhanced := h.Svc.EnhanceDescription(c.Request.Context(), req.Description)
	response.Success[any](c, http.StatusOK, map[string]any{"description": enhanced}, "description enhanced", nil)
}
