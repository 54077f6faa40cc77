package httpserver

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

func catalog() []domain.Product {
	return []domain.Product{
		{ID: "p1", Name: "Shirt", Brand: "Acme", Price: decimal.NewFromInt(100), Category: domain.CategoryMale},
		{ID: "p2", Name: "Cap", Brand: "Acme", Price: decimal.NewFromInt(50), Category: domain.CategoryKids},
	}
}

func TestProducts_Reads(t *testing.T) {
	d := newTestDeps()
	d.products.products = catalog()
	router := d.router(t)

	rec := do(router, http.MethodGet, "/api/product/allproducts", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var all []domain.Product
	decode(t, rec, &all)
	if len(all) != 2 || !all[0].Price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected products: %+v", all)
	}

	if rec := do(router, http.MethodGet, "/api/product/kids", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for category, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/api/product/shoes", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/api/product/item/p2", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for item, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/api/product/item/missing", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing item, got %d", rec.Code)
	}
}

func TestProducts_WritesRequireAuth(t *testing.T) {
	d := newTestDeps()
	d.products.products = catalog()
	router := d.router(t)

	body := `{"name":"Scarf","brand":"Acme","price":"19.99","image":"img","category":"female","description":"warm"}`
	if rec := do(router, http.MethodPost, "/api/product/uploads", body, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if d.products.created != nil {
		t.Fatalf("create ran without credential")
	}

	rec := do(router, http.MethodPost, "/api/product/uploads", body, authed())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if d.products.created == nil || !d.products.created.Price.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("unexpected create input: %+v", d.products.created)
	}

	if rec := do(router, http.MethodDelete, "/api/product/item/p1", "", authed()); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(router, http.MethodDelete, "/api/product/item/ghost", "", authed()); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
