package routes

import (
	"agrilink-server/models"
	"agrilink-server/services"
	"agrilink-server/storage"
	"agrilink-server/utils"
	"net/http"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
)

// GET /admin/products
func AdminListProducts(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	status := ctx.URLParamDefault("status", "")
	search := strings.TrimSpace(ctx.URLParamDefault("search", ""))
	sellerID := ctx.URLParamDefault("seller_id", "")
	category := strings.TrimSpace(ctx.URLParamDefault("category", ""))
	region := strings.TrimSpace(ctx.URLParamDefault("region", ""))
	flagged := ctx.URLParamDefault("flagged", "")
	createdFrom := ctx.URLParamDefault("created_from", "")
	createdTo := ctx.URLParamDefault("created_to", "")

	q := storage.DB.Model(&models.Product{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if sellerID != "" {
		q = q.Where("seller_id = ?", sellerID)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if region != "" {
		q = q.Where("lower(region) = ?", strings.ToLower(region))
	}
	if flagged == "true" {
		q = q.Where("is_flagged = ?", true)
	}
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("lower(name) LIKE ? OR lower(description) LIKE ?", like, like)
	}
	if createdFrom != "" {
		if t, err := time.Parse(time.RFC3339, createdFrom); err == nil {
			q = q.Where("created_at >= ?", t)
		}
	}
	if createdTo != "" {
		if t, err := time.Parse(time.RFC3339, createdTo); err == nil {
			q = q.Where("created_at <= ?", t)
		}
	}

	var total int64
	q.Count(&total)

	var products []models.Product
	if err := q.Preload("Seller").Offset((page - 1) * perPage).Limit(perPage).Order("created_at DESC").Find(&products).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.JSONPage(ctx, products, page, perPage, total)
}

// GET /admin/products/:id
func AdminGetProduct(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	var product models.Product
	if err := storage.DB.Preload("Seller").First(&product, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "product not found")
		return
	}
	ctx.JSON(iris.Map{"data": &product, "meta": iris.Map{}, "links": iris.Map{}})
}

// PATCH /admin/products/:id/status {status, note}
func AdminUpdateProductStatus(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}
	var body struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := ctx.ReadJSON(&body); err != nil || body.Status == "" {
		utils.JSONError(ctx, http.StatusUnprocessableEntity, "invalid_payload", "status required")
		return
	}
	switch body.Status {
	case "active", "pending", "archived", "removed":
	default:
		utils.JSONError(ctx, http.StatusUnprocessableEntity, "invalid_payload", "status must be active/pending/archived/removed")
		return
	}
	var product models.Product
	if err := storage.DB.First(&product, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "product not found")
		return
	}
	before := product
	product.Status = body.Status
	product.ReviewNotes = body.Note
	if err := storage.DB.Save(&product).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	utils.Audit(ctx, "product.status_update", "product", product.ID, before, product)

	// Tell the seller their listing changed status
	if before.Status != product.Status {
		notificationService := services.NewNotificationService()
		go notificationService.SendProductStatusNotification(
			product.ID,
			product.SellerID,
			product.Name,
			product.Status,
		)
	}

	ctx.JSON(iris.Map{"data": &product})
}

// POST /admin/products/:id/flag { reason }
func AdminFlagProduct(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := ctx.ReadJSON(&body); err != nil {
		utils.JSONError(ctx, http.StatusUnprocessableEntity, "invalid_payload", "reason required")
		return
	}
	var product models.Product
	if err := storage.DB.First(&product, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "product not found")
		return
	}
	before := product
	product.IsFlagged = true
	product.FlagReason = body.Reason
	if err := storage.DB.Save(&product).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	utils.Audit(ctx, "product.flag", "product", product.ID, before, product)
	ctx.JSON(iris.Map{"data": &product})
}
