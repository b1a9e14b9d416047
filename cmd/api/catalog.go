package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/anbari/storefront/internal/store"
)

func (a *api) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), a.db)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, categories)
}

func (a *api) createCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := store.CreateCategory(r.Context(), a.db, req.Name)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, category)
}

func (a *api) listProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)

	categoryID, _ := strconv.ParseInt(r.URL.Query().Get("category"), 10, 64)

	var result *store.OffsetPage
	var err error
	if categoryID != 0 {
		result, err = store.ListProductsByCategory(r.Context(), a.db, categoryID, page, pageSize)
	} else {
		result, err = store.ListProducts(r.Context(), a.db, page, pageSize)
	}
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, result)
}

func (a *api) createProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryID  int64  `json:"category_id"`
		SKU         string `json:"sku"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Price       string `json:"price"`
		Stock       int    `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid price")
		return
	}

	product, err := store.CreateProduct(r.Context(), a.db, req.CategoryID, req.SKU, req.Name, req.Description, price, req.Stock)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, product)
}

func (a *api) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := store.GetProduct(r.Context(), a.db, id)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, product)
}

func (a *api) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := store.CreateUser(r.Context(), a.db, req.Email, req.Name)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, user)
}

func (a *api) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		a.respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := store.GetUser(r.Context(), a.db, id)
	if err != nil {
		a.respondDomainError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, user)
}
