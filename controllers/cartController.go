package controllers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/Kariqs/megano-api/initializers"
	"github.com/Kariqs/megano-api/middlewares"
	"github.com/gin-gonic/gin"
)

type basketItemInput struct {
	ID    uint `json:"id"`
	Count *int `json:"count"`
}

// readBasketItem accepts {id, count} as a JSON body of any content type, falling back to
// the query string. Count defaults to 1.
func readBasketItem(ctx *gin.Context) (basketItemInput, bool) {
	var item basketItemInput
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, 1<<16))
	if err != nil {
		log.Println("Basket body read error:", err)
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &item); err != nil {
			sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
			return item, false
		}
	}

	if item.ID == 0 {
		if id, err := strconv.ParseUint(ctx.Query("id"), 10, 64); err == nil {
			item.ID = uint(id)
		}
	}
	if item.Count == nil {
		if count, err := strconv.Atoi(ctx.Query("count")); err == nil {
			item.Count = &count
		}
	}
	if item.ID == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msgValidationFailed, "fields": gin.H{"id": "is required"}})
		return item, false
	}
	if item.Count == nil {
		one := 1
		item.Count = &one
	}
	return item, true
}

func GetBasket(ctx *gin.Context) {
	items, err := initializers.Baskets.Get(ctx.Request.Context(), middlewares.CallerFrom(ctx))
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, items)
}

func AddToBasket(ctx *gin.Context) {
	item, ok := readBasketItem(ctx)
	if !ok {
		return
	}

	items, err := initializers.Baskets.Add(ctx.Request.Context(), middlewares.CallerFrom(ctx), item.ID, *item.Count)
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, items)
}

func RemoveFromBasket(ctx *gin.Context) {
	item, ok := readBasketItem(ctx)
	if !ok {
		return
	}

	items, err := initializers.Baskets.Remove(ctx.Request.Context(), middlewares.CallerFrom(ctx), item.ID, *item.Count)
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, items)
}
