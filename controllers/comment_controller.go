package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amaforum/ama/models"
	"github.com/amaforum/ama/store"
	"github.com/amaforum/ama/utils"
)

// CommentController manages comments on posts.
type CommentController struct {
	store store.Store
	cache *utils.Cache
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(s store.Store, cache *utils.Cache) *CommentController {
	return &CommentController{store: s, cache: cache}
}

// CreateComment stores a comment and bumps the parent post's comment counter.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		PostID      string `json:"postId" binding:"required"`
		PostTitle   string `json:"postTitle"`
		Comment     string `json:"comment" binding:"required"`
		AuthorEmail string `json:"authorEmail"`
		AuthorName  string `json:"authorName"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}
	body := strings.TrimSpace(utils.Sanitize(req.Comment))
	if body == "" {
		utils.Error(ctx, http.StatusBadRequest, 40031, "comment cannot be empty")
		return
	}

	rctx := ctx.Request.Context()
	post, err := c.store.GetPost(rctx, strings.TrimSpace(req.PostID))
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		utils.Error(ctx, http.StatusNotFound, 40430, "post not found")
		return
	}
	if err != nil {
		storageError(ctx, 50030, "failed to retrieve post", err)
		return
	}

	title := utils.SanitizeText(req.PostTitle)
	if title == "" {
		title = post.Title
	}
	comment := models.Comment{
		PostID:      post.ID,
		PostTitle:   title,
		AuthorEmail: strings.TrimSpace(req.AuthorEmail),
		AuthorName:  utils.SanitizeText(req.AuthorName),
		Body:        body,
	}
	res, err := c.store.AddComment(rctx, &comment)
	if err != nil {
		storageError(ctx, 50031, "failed to create comment", err)
		return
	}

	c.cache.Invalidate(rctx)
	utils.Success(ctx, res)
}

// ListComments returns the comments of a post, oldest first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	comments, err := c.store.ListCommentsByPost(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		storageError(ctx, 50032, "failed to list comments", err)
		return
	}
	utils.Success(ctx, comments)
}

// ListCommentsByTitle returns comments recorded against a post title.
func (c *CommentController) ListCommentsByTitle(ctx *gin.Context) {
	comments, err := c.store.ListCommentsByTitle(ctx.Request.Context(), ctx.Param("title"))
	if err != nil {
		storageError(ctx, 50032, "failed to list comments", err)
		return
	}
	utils.Success(ctx, comments)
}
