package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amaforum/ama/store"
	"github.com/amaforum/ama/utils"
)

// TagController manages admin tags and recorded search tags.
type TagController struct {
	store store.Store
}

// NewTagController creates a new TagController instance.
func NewTagController(s store.Store) *TagController {
	return &TagController{store: s}
}

// ListTags returns the admin curated tags.
func (t *TagController) ListTags(ctx *gin.Context) {
	tags, err := t.store.ListTags(ctx.Request.Context())
	if err != nil {
		storageError(ctx, 50040, "failed to list tags", err)
		return
	}
	utils.Success(ctx, tags)
}

// RegisterTag adds a tag unless an identical one exists. insertedId is null for duplicates.
func (t *TagController) RegisterTag(ctx *gin.Context) {
	var req struct {
		Tag string `json:"tag"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}
	tag := utils.SanitizeText(req.Tag)
	if tag == "" {
		utils.Error(ctx, http.StatusBadRequest, 40041, "tag cannot be empty")
		return
	}

	res, err := t.store.RegisterTag(ctx.Request.Context(), tag)
	if err != nil {
		storageError(ctx, 50041, "failed to register tag", err)
		return
	}
	utils.Success(ctx, res)
}

// ListSearchTags returns recorded search tags, most recently used first.
func (t *TagController) ListSearchTags(ctx *gin.Context) {
	tags, err := t.store.ListSearchTags(ctx.Request.Context())
	if err != nil {
		storageError(ctx, 50042, "failed to list search tags", err)
		return
	}
	utils.Success(ctx, tags)
}

// RecordSearchTag upserts ?storeTag=. Empty text is accepted and ignored.
func (t *TagController) RecordSearchTag(ctx *gin.Context) {
	tag := strings.TrimSpace(ctx.Query("storeTag"))
	if tag != "" {
		if err := t.store.RecordSearchTag(ctx.Request.Context(), tag, time.Now().UTC()); err != nil {
			storageError(ctx, 50043, "failed to record search tag", err)
			return
		}
	}
	utils.Success(ctx, gin.H{"tag": tag, "recorded": tag != ""})
}
