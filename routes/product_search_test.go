package routes

import (
	"agrilink-server/models"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

func buildSearchTestApp(t *testing.T) *iris.Application {
	t.Helper()
	app := iris.New()
	app.Get("/api/products/search", SearchProducts)
	if err := app.Build(); err != nil {
		t.Fatalf("failed to build test app: %v", err)
	}
	return app
}

func seedProduct(t *testing.T, db *gorm.DB, sellerID uint, name, category, region string, price float32, status string) *models.Product {
	t.Helper()
	product := models.Product{
		SellerID: sellerID,
		Name:     name,
		Category: category,
		Unit:     "kg",
		Price:    price,
		Quantity: 100,
		Currency: "MMK",
		Region:   region,
		Status:   status,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return &product
}

func searchResults(t *testing.T, app *iris.Application, query string) []map[string]interface{} {
	t.Helper()
	resp := doJSON(t, app, http.MethodGet, "/api/products/search"+query, "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 searching %q, got %d: %s", query, resp.Code, resp.Body.String())
	}
	var products []map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &products); err != nil {
		t.Fatalf("failed to decode results: %v", err)
	}
	return products
}

func TestSearchProductsFilters(t *testing.T) {
	db := setupTestDB(t)
	app := buildSearchTestApp(t)

	seller := createTestUser(t, db, nil)
	seedProduct(t, db, seller.ID, "Paw San rice", "rice", "Ayeyarwady", 2200, "active")
	seedProduct(t, db, seller.ID, "Shan rice", "rice", "Shan", 2600, "active")
	seedProduct(t, db, seller.ID, "Matpe beans", "pulses", "Bago", 3100, "active")
	seedProduct(t, db, seller.ID, "Removed rice", "rice", "Ayeyarwady", 2000, "removed")

	if got := len(searchResults(t, app, "")); got != 3 {
		t.Fatalf("expected 3 active products, got %d", got)
	}

	rice := searchResults(t, app, "?category=rice")
	if len(rice) != 2 {
		t.Fatalf("expected 2 active rice products, got %d", len(rice))
	}

	ayeyarwady := searchResults(t, app, "?region=ayeyarwady")
	if len(ayeyarwady) != 1 || ayeyarwady[0]["name"] != "Paw San rice" {
		t.Fatalf("unexpected region filter result: %v", ayeyarwady)
	}

	cheap := searchResults(t, app, "?maxPrice=2500")
	if len(cheap) != 1 || cheap[0]["name"] != "Paw San rice" {
		t.Fatalf("unexpected maxPrice filter result: %v", cheap)
	}

	query := searchResults(t, app, "?q=beans")
	if len(query) != 1 || query[0]["name"] != "Matpe beans" {
		t.Fatalf("unexpected free-text result: %v", query)
	}
}

func TestSearchProductsVerifiedOnly(t *testing.T) {
	db := setupTestDB(t)
	app := buildSearchTestApp(t)

	unverified := createTestUser(t, db, nil)
	verified := createTestUser(t, db, func(u *models.User) {
		u.Email = "verified@example.com"
		u.Verified = boolPtr(true)
		u.VerificationStatus = "verified"
	})
	seedProduct(t, db, unverified.ID, "Unverified onions", "vegetables", "Bago", 900, "active")
	seedProduct(t, db, verified.ID, "Trusted onions", "vegetables", "Bago", 950, "active")

	all := searchResults(t, app, "")
	if len(all) != 2 {
		t.Fatalf("expected 2 products without the filter, got %d", len(all))
	}

	trusted := searchResults(t, app, "?verifiedOnly=true")
	if len(trusted) != 1 || trusted[0]["name"] != "Trusted onions" {
		t.Fatalf("unexpected verifiedOnly result: %v", trusted)
	}

	farmers := searchResults(t, app, "?sellerType=farmer&verifiedOnly=true")
	if len(farmers) != 1 || farmers[0]["name"] != "Trusted onions" {
		t.Fatalf("unexpected combined seller filter result: %v", farmers)
	}
}

func TestSearchProductsSorting(t *testing.T) {
	db := setupTestDB(t)
	app := buildSearchTestApp(t)

	seller := createTestUser(t, db, nil)
	for i, price := range []float32{2600, 2200, 3100} {
		seedProduct(t, db, seller.ID, fmt.Sprintf("Lot %d", i), "rice", "Bago", price, "active")
	}

	asc := searchResults(t, app, "?sort=price_low")
	if len(asc) != 3 {
		t.Fatalf("expected 3 products, got %d", len(asc))
	}
	prev := float64(0)
	for _, p := range asc {
		price := p["price"].(float64)
		if price < prev {
			t.Fatalf("expected ascending prices, got %v", asc)
		}
		prev = price
	}

	desc := searchResults(t, app, "?sort=price_high")
	if desc[0]["price"].(float64) != 3100 {
		t.Fatalf("expected highest price first, got %v", desc[0])
	}
}
