package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// Customer is the customer.
type Customer struct {
	Name string `json:"name" required:"true"`
}

// Customers is a page of customers.
type Customers struct {
	Customers        []Customer `json:"customers"`
	PaginationMarker string     `json:"pagination_marker" doc:"Opaque marker for the next page"`
}

// Order is the order.
type Order struct {
	ID   int    `json:"id" required:"true"`
	Name string `json:"name" required:"true"`
}

// OrderRequest is the body accepted when creating an order.
type OrderRequest struct {
	Name string `json:"name" required:"true"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	//nolint:errcheck,gosec // best-effort body write
	w.Write([]byte("ok"))
}

func handleGetCustomer(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Customer{Name: "Bill Book"})
}

func handleGetCustomers(w http.ResponseWriter, _ *http.Request) {
	c := Customer{Name: "Bill Book"}
	writeJSON(w, http.StatusOK, Customers{
		Customers:        []Customer{c},
		PaginationMarker: fmt.Sprintf("%s:Foo", c.Name),
	})
}

func handleGetOrder(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Order{ID: 100, Name: "Bill Book"})
}

func handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid order: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, Order{ID: 120, Name: req.Name})
}

func handleGetOrderByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id != 100 {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, Order{ID: id, Name: "Bill Book"})
}

func handleGetSecret(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, "secret")
}

func handlePostSecret(w http.ResponseWriter, _ *http.Request) {
	slog.Info("You posted a secret")
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort after WriteHeader
	json.NewEncoder(w).Encode(v)
}
