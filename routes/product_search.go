package routes

import (
	"agrilink-server/models"
	"agrilink-server/storage"
	"strings"

	"github.com/kataras/iris/v12"
)

// SearchProducts handles product browsing with multiple filters
func SearchProducts(ctx iris.Context) {
	q := storage.DB.Model(&models.Product{}).Preload("Seller")

	// Location filters
	if region := strings.TrimSpace(ctx.URLParam("region")); region != "" {
		q = q.Where("LOWER(region) = LOWER(?)", region)
	}
	if township := strings.TrimSpace(ctx.URLParam("township")); township != "" {
		q = q.Where("LOWER(township) = LOWER(?)", township)
	}

	// Product attributes
	if category := strings.TrimSpace(ctx.URLParam("category")); category != "" {
		q = q.Where("category = ?", category)
	}
	if unit := strings.TrimSpace(ctx.URLParam("unit")); unit != "" {
		q = q.Where("unit = ?", unit)
	}
	if minPrice, err := ctx.URLParamInt("minPrice"); err == nil && minPrice > 0 {
		q = q.Where("price >= ?", minPrice)
	}
	if maxPrice, err := ctx.URLParamInt("maxPrice"); err == nil && maxPrice > 0 {
		q = q.Where("price <= ?", maxPrice)
	}
	if minQuantity, err := ctx.URLParamInt("minQuantity"); err == nil && minQuantity > 0 {
		q = q.Where("quantity >= ?", minQuantity)
	}
	// Seller filters share one join
	sellerType := strings.TrimSpace(ctx.URLParam("sellerType"))
	verifiedOnly := ctx.URLParamBoolDefault("verifiedOnly", false)
	if sellerType != "" || verifiedOnly {
		q = q.Joins("JOIN users ON users.id = products.seller_id")
		if sellerType != "" {
			q = q.Where("users.user_type = ?", sellerType)
		}
		if verifiedOnly {
			q = q.Where("(users.verified = ? OR users.business_verified = ?)", true, true)
		}
	}

	// Free-text search over name and description
	if query := strings.TrimSpace(ctx.URLParam("q")); query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	// Only active listings are publicly searchable
	q = q.Where("status = ?", "active")
	q = q.Where("COALESCE(is_active, ?) = ?", true, true)

	// Sorting
	sort := strings.ToLower(strings.TrimSpace(ctx.URLParam("sort")))
	switch sort {
	case "price_low":
		q = q.Order("price ASC").Order("id DESC")
	case "price_high":
		q = q.Order("price DESC").Order("id DESC")
	case "quantity":
		q = q.Order("quantity DESC").Order("id DESC")
	default:
		q = q.Order("created_at DESC")
	}

	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		ctx.StatusCode(iris.StatusInternalServerError)
		ctx.JSON(iris.Map{"message": "Failed to search products"})
		return
	}

	ctx.JSON(products)
}
