package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/payment"
)

type createPaymentIntentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// CreatePaymentIntent opens one transaction with the payment processor for
// the submitted amount (major currency units) and returns the client secret.
// Each call opens a distinct transaction; the client is responsible for
// calling this once per checkout attempt.
func CreatePaymentIntent(client *payment.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payments/create-payment-intent"
		defer handlePanic(c, route)

		var req createPaymentIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		intent, err := client.CreateIntent(c.Request.Context(), req.Amount)
		if err != nil {
			if errors.Is(err, payment.ErrNonPositiveAmount) {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			log.Println("[PAYMENT] [ERROR] intent creation failed:", err)
			respondWithError(c, http.StatusBadGateway, route, "Payment failed")
			return
		}

		log.Printf("[PAYMENT] [INFO] intent %s opened for amount %.2f", intent.ID, req.Amount)
		c.JSON(http.StatusOK, gin.H{"clientSecret": intent.ClientSecret})
	}
}
