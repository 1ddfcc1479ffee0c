package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amaforum/ama/config"
	"github.com/amaforum/ama/utils"
)

// PaymentController creates payment intents for membership purchases.
type PaymentController struct {
	payments utils.PaymentProcessor
	currency string
}

// NewPaymentController creates a new PaymentController. payments may be nil when no key is configured.
func NewPaymentController(payments utils.PaymentProcessor, cfg config.AppConfig) *PaymentController {
	currency := cfg.PaymentCurrency
	if currency == "" {
		currency = "usd"
	}
	return &PaymentController{payments: payments, currency: currency}
}

// CreatePaymentIntent charges price (major units) by card and returns the intent's client secret.
func (p *PaymentController) CreatePaymentIntent(ctx *gin.Context) {
	var req struct {
		Price float64 `json:"price"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid request payload")
		return
	}
	amount := utils.MinorUnits(req.Price)
	if amount <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40081, "price must be positive")
		return
	}
	if p.payments == nil {
		utils.Error(ctx, http.StatusServiceUnavailable, 50380, "payments are not configured")
		return
	}

	secret, err := p.payments.CreateIntent(ctx.Request.Context(), amount, p.currency)
	if err != nil {
		utils.Logger.Error("payment intent failed", zap.Int64("amount", amount), zap.Error(err))
		utils.Error(ctx, http.StatusBadGateway, 50280, "failed to create payment intent")
		return
	}
	utils.Success(ctx, gin.H{"clientSecret": secret})
}
