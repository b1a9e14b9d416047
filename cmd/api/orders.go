package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/anbari/storefront/internal/database"
	"github.com/anbari/storefront/internal/store"
)

func (a *api) checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req struct {
		ShippingAddress string `json:"shipping_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ord, err := a.engine.CheckoutCart(r.Context(), userID, req.ShippingAddress)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}

	a.logger.Info("order placed",
		zap.Int64("order_id", ord.ID),
		zap.Int64("user_id", userID),
		zap.String("total", ord.TotalAmount.String()))

	if err := a.publisher.PublishOrderCreated(r.Context(), ord); err != nil {
		a.logger.Error("publish order created", zap.Int64("order_id", ord.ID), zap.Error(err))
	}

	a.respondJSON(w, http.StatusCreated, ord)
}

func (a *api) buyNow(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req struct {
		ProductID       int64  `json:"product_id"`
		Quantity        int    `json:"quantity"`
		ShippingAddress string `json:"shipping_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ord, err := a.engine.BuyNow(r.Context(), userID, req.ProductID, req.Quantity, req.ShippingAddress)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}

	a.logger.Info("buy-now order placed",
		zap.Int64("order_id", ord.ID),
		zap.Int64("user_id", userID),
		zap.Int64("product_id", req.ProductID))

	if err := a.publisher.PublishOrderCreated(r.Context(), ord); err != nil {
		a.logger.Error("publish order created", zap.Int64("order_id", ord.ID), zap.Error(err))
	}

	a.respondJSON(w, http.StatusCreated, ord)
}

func (a *api) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result, err := store.ListOrdersCursor(r.Context(), a.db, userID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, result)
}

// getOrder resolves the order first, then checks ownership, so a
// missing order is 404 and someone else's order is 403.
func (a *api) getOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	orderID, err := pathID(r, "orderID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	ord, err := store.GetOrder(r.Context(), a.db, orderID)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}

	if ord.UserID != userID {
		a.respondDomainError(w, database.ErrNotOrderOwner)
		return
	}

	a.respondJSON(w, http.StatusOK, ord)
}

func (a *api) cancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	orderID, err := pathID(r, "orderID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	ord, err := a.engine.Cancel(r.Context(), userID, orderID)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}

	a.logger.Info("order cancelled",
		zap.Int64("order_id", ord.ID),
		zap.Int64("user_id", userID))

	if err := a.publisher.PublishOrderCancelled(r.Context(), ord); err != nil {
		a.logger.Error("publish order cancelled", zap.Int64("order_id", ord.ID), zap.Error(err))
	}

	a.respondJSON(w, http.StatusOK, ord)
}
