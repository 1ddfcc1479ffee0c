package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amaforum/ama/config"
	"github.com/amaforum/ama/models"
	"github.com/amaforum/ama/store"
	"github.com/amaforum/ama/utils"
)

// UserController manages forum accounts, membership and roles.
type UserController struct {
	store store.Store
	cache *utils.Cache
	cfg   config.AppConfig
}

// NewUserController creates a new UserController instance.
func NewUserController(s store.Store, cache *utils.Cache, cfg config.AppConfig) *UserController {
	return &UserController{store: s, cache: cache, cfg: cfg}
}

// CreateUser inserts a user unless one already exists for the email.
func (u *UserController) CreateUser(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Name  string `json:"name"`
		Image string `json:"image"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		utils.Error(ctx, http.StatusBadRequest, 40011, "email cannot be empty")
		return
	}

	user := models.User{
		Email:      email,
		Name:       utils.SanitizeText(req.Name),
		Image:      strings.TrimSpace(req.Image),
		Role:       models.RoleUser,
		Membership: models.MembershipNone,
		PostLimit:  u.cfg.DefaultPostLimit,
	}
	res, err := u.store.CreateUserIfAbsent(ctx.Request.Context(), &user)
	if err != nil {
		storageError(ctx, 50010, "failed to create user", err)
		return
	}
	if res.InsertedID == nil {
		utils.Success(ctx, gin.H{"message": "user already exists", "insertedId": nil})
		return
	}

	u.cache.InvalidateByPrefix(ctx.Request.Context(), utils.CacheStatsKey)
	utils.Success(ctx, res)
}

// GetUser returns the user registered with the email in the path.
func (u *UserController) GetUser(ctx *gin.Context) {
	user, err := u.store.GetUserByEmail(ctx.Request.Context(), ctx.Param("email"))
	if errors.Is(err, store.ErrNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}
	if err != nil {
		storageError(ctx, 50011, "failed to retrieve user", err)
		return
	}
	utils.Success(ctx, user)
}

// UpgradeMembership marks the user as a member with an unlimited post allowance.
func (u *UserController) UpgradeMembership(ctx *gin.Context) {
	res, err := u.store.UpgradeMembership(ctx.Request.Context(), ctx.Param("email"))
	if err != nil {
		storageError(ctx, 50012, "failed to upgrade membership", err)
		return
	}
	utils.Success(ctx, res)
}

// MakeAdmin grants the admin role to the user with the given id.
func (u *UserController) MakeAdmin(ctx *gin.Context) {
	res, err := u.store.MakeAdmin(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		storageError(ctx, 50013, "failed to update role", err)
		return
	}
	utils.Success(ctx, res)
}

// ListUsers returns users newest first.
func (u *UserController) ListUsers(ctx *gin.Context) {
	u.listUsers(ctx, "")
}

// SearchUsers filters users whose name contains the keyword, ignoring case.
func (u *UserController) SearchUsers(ctx *gin.Context) {
	u.listUsers(ctx, ctx.Query("keyword"))
}

func (u *UserController) listUsers(ctx *gin.Context, keyword string) {
	page, pageSize := utils.ParsePagination(ctx)
	users, total, err := u.store.ListUsers(ctx.Request.Context(), keyword, (page-1)*pageSize, pageSize)
	if err != nil {
		storageError(ctx, 50014, "failed to retrieve users", err)
		return
	}
	utils.Success(ctx, utils.NewPage(users, page, pageSize, total))
}
