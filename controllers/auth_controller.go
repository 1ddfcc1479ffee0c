package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amaforum/ama/config"
	"github.com/amaforum/ama/middleware"
	"github.com/amaforum/ama/utils"
)

// AuthController issues and revokes session cookies.
type AuthController struct {
	cfg       config.AppConfig
	blacklist *utils.TokenBlacklist
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(cfg config.AppConfig, blacklist *utils.TokenBlacklist) *AuthController {
	return &AuthController{cfg: cfg, blacklist: blacklist}
}

// IssueToken signs a session token for the posted email and sets it as an HTTP-only cookie.
func (a *AuthController) IssueToken(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, "email cannot be empty")
		return
	}

	token, err := utils.GenerateToken(a.cfg.JWTSecret, email, a.cfg.TokenTTL)
	if err != nil {
		utils.Logger.Error("failed to sign token", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to generate token")
		return
	}

	a.setCookie(ctx, token, int(a.cfg.TokenTTL.Seconds()))
	utils.Success(ctx, gin.H{"success": true})
}

// Logout clears the session cookie and revokes the presented token until it expires.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token := middleware.TokenFromRequest(ctx); token != "" {
		if expiresAt, ok := utils.TokenExpiry(token); ok {
			a.blacklist.Revoke(ctx.Request.Context(), token, expiresAt)
		}
	}
	a.setCookie(ctx, "", -1)
	utils.Success(ctx, gin.H{"success": true})
}

// setCookie applies the production dependent cookie attributes.
func (a *AuthController) setCookie(ctx *gin.Context, value string, maxAge int) {
	if a.cfg.Production {
		ctx.SetSameSite(http.SameSiteNoneMode)
	} else {
		ctx.SetSameSite(http.SameSiteStrictMode)
	}
	ctx.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", a.cfg.Production, true)
}
