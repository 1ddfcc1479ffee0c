package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amaforum/ama/models"
	"github.com/amaforum/ama/store"
	"github.com/amaforum/ama/utils"
)

// FeedbackController collects visitor feedback.
type FeedbackController struct {
	store store.Store
}

// NewFeedbackController creates a new FeedbackController instance.
func NewFeedbackController(s store.Store) *FeedbackController {
	return &FeedbackController{store: s}
}

func (f *FeedbackController) ListFeedback(ctx *gin.Context) {
	items, err := f.store.ListFeedback(ctx.Request.Context())
	if err != nil {
		storageError(ctx, 50060, "failed to list feedback", err)
		return
	}
	utils.Success(ctx, items)
}

// CreateFeedback stores feedback text with an optional 1-5 rating.
func (f *FeedbackController) CreateFeedback(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Feedback string `json:"feedback" binding:"required"`
		Rating   *int   `json:"rating"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	text := strings.TrimSpace(utils.Sanitize(req.Feedback))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40061, "feedback cannot be empty")
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		utils.Error(ctx, http.StatusBadRequest, 40062, "rating must be between 1 and 5")
		return
	}

	item := models.Feedback{
		Email:    strings.TrimSpace(req.Email),
		Feedback: text,
		Rating:   req.Rating,
	}
	res, err := f.store.AddFeedback(ctx.Request.Context(), &item)
	if err != nil {
		storageError(ctx, 50061, "failed to store feedback", err)
		return
	}
	utils.Success(ctx, res)
}

// DeleteFeedback removes one feedback entry and reports the raw delete result.
func (f *FeedbackController) DeleteFeedback(ctx *gin.Context) {
	res, err := f.store.DeleteFeedback(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		storageError(ctx, 50062, "failed to delete feedback", err)
		return
	}
	utils.Success(ctx, res)
}
