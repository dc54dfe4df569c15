package controllers

import (
	"errors"
	"net/http"

	"github.com/Kariqs/megano-api/initializers"
	"github.com/Kariqs/megano-api/middlewares"
	"github.com/Kariqs/megano-api/services"
	"github.com/Kariqs/megano-api/utils"
	"github.com/gin-gonic/gin"
)

// Pay runs the card check for an order. Rejections and bad card numbers still leave a
// payment row behind.
func Pay(ctx *gin.Context) {
	orderId, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var card struct {
		Number string `json:"number"`
		Name   string `json:"name" validate:"max=100"`
		Month  string `json:"month" validate:"max=2"`
		Year   string `json:"year" validate:"max=4"`
		Code   string `json:"code" validate:"max=4"`
	}
	if err := utils.BindAndValidate(ctx, &card); err != nil {
		return
	}

	_, err := initializers.Payments.Pay(ctx.Request.Context(), middlewares.CallerFrom(ctx), orderId, services.PaymentInput{
		Number: card.Number,
		Name:   card.Name,
		Month:  card.Month,
		Year:   card.Year,
		Code:   card.Code,
	})
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Fields["number"], "fields": validationErr.Fields})
			return
		}
		respondWithServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"result": "Payment successful"})
}

func PaymentStatus(ctx *gin.Context) {
	orderId, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	status, err := initializers.Payments.Status(ctx.Request.Context(), middlewares.CallerFrom(ctx), orderId)
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"status": status, "error": nil})
}
