package controllers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/Kariqs/megano-api/initializers"
	"github.com/Kariqs/megano-api/middlewares"
	"github.com/Kariqs/megano-api/models"
	"github.com/Kariqs/megano-api/services"
	"github.com/Kariqs/megano-api/utils"
	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

func orderViews(orders []models.Order) []models.OrderView {
	views := make([]models.OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, services.OrderDetail(order))
	}
	return views
}

// ListOrders returns the caller's orders, newest first.
func ListOrders(ctx *gin.Context) {
	orders, err := initializers.Orders.ListMine(ctx.Request.Context(), middlewares.CallerFrom(ctx))
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, orderViews(orders))
}

// CreateOrder promotes the caller's basket into an order.
func CreateOrder(ctx *gin.Context) {
	result, err := initializers.Orders.Promote(ctx.Request.Context(), middlewares.CallerFrom(ctx), ctx.GetHeader(idempotencyHeader))
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	skipped := result.Skipped
	if skipped == nil {
		skipped = []uint{}
	}
	sendJSONResponse(ctx, status, gin.H{
		"orderId": result.Order.ID,
		"skipped": skipped,
	})
}

func GetOrder(ctx *gin.Context) {
	orderId, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	order, err := initializers.Orders.Get(ctx.Request.Context(), middlewares.CallerFrom(ctx), orderId)
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, services.OrderDetail(*order))
}

// ConfirmOrder stores the customer details of an order. Absent keys keep their values.
func ConfirmOrder(ctx *gin.Context) {
	orderId, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var details struct {
		FullName     *string `json:"fullName" validate:"omitempty,max=100"`
		Email        *string `json:"email" validate:"omitempty,email"`
		Phone        *string `json:"phone" validate:"omitempty,max=20"`
		City         *string `json:"city" validate:"omitempty,max=100"`
		Address      *string `json:"address" validate:"omitempty,max=200"`
		Comment      *string `json:"comment"`
		DeliveryType *string `json:"deliveryType"`
		PaymentType  *string `json:"paymentType"`
		Delivery     *string `json:"delivery"`
		Pay          *string `json:"pay"`
	}
	if err := utils.BindAndValidate(ctx, &details); err != nil {
		return
	}

	order, err := initializers.Orders.Confirm(ctx.Request.Context(), middlewares.CallerFrom(ctx), orderId, services.ConfirmInput{
		FullName:     details.FullName,
		Email:        details.Email,
		Phone:        details.Phone,
		City:         details.City,
		Address:      details.Address,
		Comment:      details.Comment,
		DeliveryType: details.DeliveryType,
		PaymentType:  details.PaymentType,
		Delivery:     details.Delivery,
		Pay:          details.Pay,
	})
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"orderId": order.ID})
}

// Admin order handlers
func GetOrders(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "15"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 15
	}

	sortOrder := ctx.DefaultQuery("sort", "desc")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	orders, count, err := initializers.Orders.List(ctx.Request.Context(), services.OrderFilter{
		Page:   page,
		Limit:  limit,
		Status: ctx.Query("status"),
		Desc:   sortOrder == "desc",
	})
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}

	previousPage := page - 1
	nextPage := page + 1
	totalPages := math.Ceil(float64(count) / float64(limit))

	ctx.JSON(http.StatusOK, gin.H{
		"orders": orderViews(orders),
		"metadata": gin.H{
			"total":        count,
			"currentPage":  page,
			"limit":        limit,
			"hasPrevPage":  previousPage > 0,
			"hasNextPage":  int(totalPages) > page,
			"previousPage": previousPage,
			"nextPage":     nextPage,
		},
	})
}

func UpdateOrderStatus(ctx *gin.Context) {
	orderId, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var orderStatusData struct {
		Status string `json:"status" validate:"required"`
	}
	if err := utils.BindAndValidate(ctx, &orderStatusData); err != nil {
		return
	}

	if _, err := initializers.Orders.UpdateStatus(ctx.Request.Context(), middlewares.CallerFrom(ctx), orderId, orderStatusData.Status); err != nil {
		respondWithServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully.",
	})
}

func DeleteOrder(ctx *gin.Context) {
	orderId, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := initializers.Orders.Delete(ctx.Request.Context(), middlewares.CallerFrom(ctx), orderId); err != nil {
		respondWithServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Order deleted successfully."})
}

func GetUndeliveredOrders(ctx *gin.Context) {
	count, err := initializers.Orders.CountUndelivered(ctx.Request.Context())
	if err != nil {
		respondWithServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"undeliveredOrders": count})
}
