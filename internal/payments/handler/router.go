package handler

import "github.com/julienschmidt/httprouter"

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/payments/webhook", h.Webhook)
	router.POST("/api/payments/toss/confirm", h.ConfirmToss)
	router.POST("/api/payments/id/:id/verify", h.Verify)
	router.GET("/api/payments/id/:id", h.GetByID)
	router.GET("/api/payments/order/:orderId", h.GetByOrderID)
}
