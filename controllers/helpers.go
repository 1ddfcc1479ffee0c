package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amaforum/ama/utils"
)

// storageError logs err and writes a 500 envelope.
func storageError(ctx *gin.Context, code int, message string, err error) {
	utils.Logger.Error(message,
		zap.Error(err),
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.Request.URL.Path),
	)
	utils.Error(ctx, http.StatusInternalServerError, code, message)
}

// writeCached serves a previously cached response body.
func writeCached(ctx *gin.Context, b []byte) {
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
}

// successCached writes data and stores the full envelope under key.
func successCached(ctx *gin.Context, cache *utils.Cache, key string, data interface{}) {
	resp := utils.JSONResponse{Code: 0, Message: "success", Data: data}
	cache.SetJSON(ctx.Request.Context(), key, resp)
	ctx.JSON(http.StatusOK, resp)
}
