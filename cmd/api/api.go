package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/anbari/storefront/internal/database"
	"github.com/anbari/storefront/internal/events"
	"github.com/anbari/storefront/internal/order"
	"github.com/anbari/storefront/internal/pricing"
)

type api struct {
	db        *sql.DB
	calc      pricing.Calculator
	engine    *order.Engine
	publisher *events.Publisher
	logger    *zap.Logger
}

func (a *api) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("encode response", zap.Error(err))
	}
}

func (a *api) respondError(w http.ResponseWriter, status int, message string) {
	a.respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps the typed failures of the cart ledger and
// order engine onto HTTP statuses. Anything unrecognized is a 500 and
// gets logged; business failures are the client's to fix, not ours.
func (a *api) respondDomainError(w http.ResponseWriter, err error) {
	var validationErr *database.ValidationError
	if errors.As(err, &validationErr) {
		a.respondError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	var stockErr *database.InsufficientStockError
	if errors.As(err, &stockErr) {
		a.respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID,
			"available":  stockErr.Available,
		})
		return
	}

	var transitionErr *database.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		a.respondError(w, http.StatusConflict, transitionErr.Error())
		return
	}

	switch {
	case errors.Is(err, database.ErrEmptyCart):
		a.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrNotOrderOwner):
		a.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrCategoryNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrOrderNotFound):
		a.respondError(w, http.StatusNotFound, err.Error())
	default:
		a.logger.Error("request failed", zap.Error(err))
		a.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
