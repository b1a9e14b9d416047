package main

import (
	"encoding/json"
	"net/http"

	"github.com/anbari/storefront/internal/cart"
	"github.com/anbari/storefront/internal/pricing"
)

// getCart returns the cart lines plus a totals preview. The preview is
// computed from the lines, never from a stored amount; the checkout
// transaction recomputes it from locked prices anyway.
func (a *api) getCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	lines, err := cart.List(r.Context(), a.db, userID)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}

	items := make([]pricing.LineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, pricing.LineItem{UnitPrice: line.UnitPrice, Quantity: line.Quantity})
	}

	a.respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  lines,
		"totals": a.calc.Compute(items),
	})
}

func (a *api) addCartItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	line, err := cart.Add(r.Context(), a.db, userID, req.ProductID, req.Quantity)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, line)
}

func (a *api) updateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	productID, err := pathID(r, "productID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	line, err := cart.SetQuantity(r.Context(), a.db, userID, productID, req.Quantity)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}

	if line == nil {
		// Quantity below 1 removed the line.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	a.respondJSON(w, http.StatusOK, line)
}

func (a *api) removeCartItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	productID, err := pathID(r, "productID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := cart.Remove(r.Context(), a.db, userID, productID); err != nil {
		a.respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) clearCart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := cart.Clear(r.Context(), a.db, userID); err != nil {
		a.respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
