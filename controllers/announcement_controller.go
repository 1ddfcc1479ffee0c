package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amaforum/ama/models"
	"github.com/amaforum/ama/store"
	"github.com/amaforum/ama/utils"
)

// AnnouncementController serves the admin notice board.
type AnnouncementController struct {
	store store.Store
}

// NewAnnouncementController creates a new AnnouncementController instance.
func NewAnnouncementController(s store.Store) *AnnouncementController {
	return &AnnouncementController{store: s}
}

// ListAnnouncements returns announcements newest first.
func (a *AnnouncementController) ListAnnouncements(ctx *gin.Context) {
	items, err := a.store.ListAnnouncements(ctx.Request.Context())
	if err != nil {
		storageError(ctx, 50050, "failed to list announcements", err)
		return
	}
	utils.Success(ctx, items)
}

// CreateAnnouncement appends an announcement.
func (a *AnnouncementController) CreateAnnouncement(ctx *gin.Context) {
	var req struct {
		AuthorName  string `json:"authorName"`
		AuthorImage string `json:"authorImage"`
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}
	title := utils.SanitizeText(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40051, "title cannot be empty")
		return
	}

	item := models.Announcement{
		AuthorName:  utils.SanitizeText(req.AuthorName),
		AuthorImage: strings.TrimSpace(req.AuthorImage),
		Title:       title,
		Description: utils.Sanitize(req.Description),
	}
	res, err := a.store.AddAnnouncement(ctx.Request.Context(), &item)
	if err != nil {
		storageError(ctx, 50051, "failed to create announcement", err)
		return
	}
	utils.Success(ctx, res)
}

// CountAnnouncements returns {count}.
func (a *AnnouncementController) CountAnnouncements(ctx *gin.Context) {
	n, err := a.store.CountAnnouncements(ctx.Request.Context())
	if err != nil {
		storageError(ctx, 50052, "failed to count announcements", err)
		return
	}
	utils.Success(ctx, gin.H{"count": n})
}
