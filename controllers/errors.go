package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/Kariqs/megano-api/services"
	"github.com/gin-gonic/gin"
)

// respondWithServiceError turns a service error into its HTTP response.
func respondWithServiceError(ctx *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": msgValidationFailed, "fields": validationErr.Fields})
	case errors.Is(err, services.ErrPaymentRejected):
		sendErrorResponse(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		sendErrorResponse(ctx, http.StatusNotFound, msgNotFound)
	case errors.Is(err, services.ErrInvalidID):
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidID)
	case errors.Is(err, services.ErrAccessDenied):
		sendErrorResponse(ctx, http.StatusForbidden, msgAccessDenied)
	case errors.Is(err, services.ErrNoBasket):
		sendErrorResponse(ctx, http.StatusBadRequest, msgNoBasket)
	case errors.Is(err, services.ErrEmptyBasket):
		sendErrorResponse(ctx, http.StatusBadRequest, msgEmptyBasket)
	case errors.Is(err, services.ErrAlreadyPaid):
		sendErrorResponse(ctx, http.StatusConflict, msgAlreadyPaid)
	default:
		log.Printf("%s %s: %v", ctx.Request.Method, ctx.FullPath(), err)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
	}
}

// pathID parses a numeric path parameter, answering 400 when it is malformed.
func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := services.ParseID(ctx.Param(name))
	if err != nil {
		respondWithServiceError(ctx, err)
		return 0, false
	}
	return id, true
}
