package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amaforum/ama/config"
	"github.com/amaforum/ama/models"
	"github.com/amaforum/ama/store"
	"github.com/amaforum/ama/utils"
)

const recentPostCount = 3

// PostController manages posts, their listings and votes.
type PostController struct {
	store store.Store
	cache *utils.Cache
	cfg   config.AppConfig
}

// NewPostController creates a new PostController instance.
func NewPostController(s store.Store, cache *utils.Cache, cfg config.AppConfig) *PostController {
	return &PostController{store: s, cache: cache, cfg: cfg}
}

// CreatePost stores a new post unless its author reached their post limit.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		AuthorEmail string `json:"authorEmail" binding:"required"`
		AuthorName  string `json:"authorName"`
		AuthorImage string `json:"authorImage"`
		Title       string `json:"title" binding:"required"`
		Tag         string `json:"tag"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.SanitizeText(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	email := strings.TrimSpace(req.AuthorEmail)
	if email == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "author email cannot be empty")
		return
	}

	rctx := ctx.Request.Context()
	// authors without an account get the default allowance
	author := &models.User{Email: email, PostLimit: p.cfg.DefaultPostLimit}
	user, err := p.store.GetUserByEmail(rctx, email)
	switch {
	case err == nil:
		author = user
	case !errors.Is(err, store.ErrNotFound):
		storageError(ctx, 50020, "failed to retrieve author", err)
		return
	}
	if author.PostLimit != models.UnlimitedPosts {
		count, err := p.store.CountPosts(rctx, email)
		if err != nil {
			storageError(ctx, 50021, "failed to count posts", err)
			return
		}
		if !author.CanPost(count) {
			utils.Error(ctx, http.StatusForbidden, 40320, "post limit reached, upgrade membership to post more")
			return
		}
	}

	post := models.Post{
		AuthorEmail: email,
		AuthorName:  utils.SanitizeText(req.AuthorName),
		AuthorImage: strings.TrimSpace(req.AuthorImage),
		Title:       title,
		Tag:         utils.SanitizeText(req.Tag),
		Description: utils.Sanitize(req.Description),
	}
	res, err := p.store.CreatePost(rctx, &post)
	if err != nil {
		storageError(ctx, 50022, "failed to create post", err)
		return
	}

	p.cache.Invalidate(rctx)
	utils.Success(ctx, res)
}

// ListPosts returns every post, newest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	p.listPosts(ctx, store.PostQuery{Order: store.OrderNewest})
}

// PopularPosts ranks posts by upVote minus downVote.
func (p *PostController) PopularPosts(ctx *gin.Context) {
	page, pageSize := utils.ParsePagination(ctx)
	cacheKey := fmt.Sprintf("%spage=%d:size=%d", utils.CachePopularPrefix, page, pageSize)
	if b, ok := p.cache.GetBytes(ctx.Request.Context(), cacheKey); ok {
		writeCached(ctx, b)
		return
	}

	posts, total, err := p.store.ListPosts(ctx.Request.Context(), store.PostQuery{
		Order:  store.OrderPopular,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		storageError(ctx, 50023, "failed to rank posts", err)
		return
	}
	successCached(ctx, p.cache, cacheKey, utils.NewPage(posts, page, pageSize, total))
}

// SearchPosts lists posts whose tag contains searchTag and records the search.
func (p *PostController) SearchPosts(ctx *gin.Context) {
	text := strings.TrimSpace(ctx.Query("searchTag"))
	if text != "" {
		if err := p.store.RecordSearchTag(ctx.Request.Context(), text, time.Now().UTC()); err != nil {
			utils.Logger.Warn("failed to record search tag", zap.String("tag", text), zap.Error(err))
		}
	}
	p.listPosts(ctx, store.PostQuery{TagContains: text, Order: store.OrderNewest})
}

// TagSearch lists posts carrying exactly the given tag.
func (p *PostController) TagSearch(ctx *gin.Context) {
	tag := strings.TrimSpace(ctx.Query("tag"))
	if tag == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "tag is required")
		return
	}
	p.listPosts(ctx, store.PostQuery{TagEquals: tag, Order: store.OrderNewest})
}

// ListUserPosts returns the posts of one author, newest first.
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	p.listPosts(ctx, store.PostQuery{AuthorEmail: ctx.Param("email"), Order: store.OrderNewest})
}

// RecentUserPosts returns the author's three most recent posts.
func (p *PostController) RecentUserPosts(ctx *gin.Context) {
	posts, _, err := p.store.ListPosts(ctx.Request.Context(), store.PostQuery{
		AuthorEmail: ctx.Param("email"),
		Order:       store.OrderNewest,
		Limit:       recentPostCount,
	})
	if err != nil {
		storageError(ctx, 50024, "failed to list posts", err)
		return
	}
	utils.Success(ctx, posts)
}

func (p *PostController) listPosts(ctx *gin.Context, q store.PostQuery) {
	page, pageSize := utils.ParsePagination(ctx)
	q.Offset, q.Limit = (page-1)*pageSize, pageSize
	posts, total, err := p.store.ListPosts(ctx.Request.Context(), q)
	if err != nil {
		storageError(ctx, 50024, "failed to list posts", err)
		return
	}
	utils.Success(ctx, utils.NewPage(posts, page, pageSize, total))
}

// GetPost returns a single post. The route is session gated.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.store.GetPost(ctx.Request.Context(), ctx.Param("id"))
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		utils.Error(ctx, http.StatusNotFound, 40420, "post not found")
		return
	}
	if err != nil {
		storageError(ctx, 50025, "failed to retrieve post", err)
		return
	}
	utils.Success(ctx, post)
}

// DeletePost removes a post and reports the raw delete result.
func (p *PostController) DeletePost(ctx *gin.Context) {
	res, err := p.store.DeletePost(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		storageError(ctx, 50026, "failed to delete post", err)
		return
	}
	if res.DeletedCount > 0 {
		p.cache.Invalidate(ctx.Request.Context())
	}
	utils.Success(ctx, res)
}

// CountPosts returns the number of posts, optionally restricted to ?email=.
func (p *PostController) CountPosts(ctx *gin.Context) {
	n, err := p.store.CountPosts(ctx.Request.Context(), strings.TrimSpace(ctx.Query("email")))
	if err != nil {
		storageError(ctx, 50027, "failed to count posts", err)
		return
	}
	utils.Success(ctx, gin.H{"count": n})
}

// UpVote increments upVote and offsets one downVote when there is one.
func (p *PostController) UpVote(ctx *gin.Context) {
	p.vote(ctx, models.VoteUp)
}

// DownVote increments downVote and offsets one upVote when there is one.
func (p *PostController) DownVote(ctx *gin.Context) {
	p.vote(ctx, models.VoteDown)
}

func (p *PostController) vote(ctx *gin.Context, dir models.VoteDirection) {
	res, err := p.store.ApplyVote(ctx.Request.Context(), ctx.Param("id"), dir)
	if err != nil {
		storageError(ctx, 50028, "failed to apply vote", err)
		return
	}
	if res.MatchedCount > 0 {
		p.cache.InvalidateByPrefix(ctx.Request.Context(), utils.CachePopularPrefix)
	}
	utils.Success(ctx, res)
}
