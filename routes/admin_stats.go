package routes

import (
	"agrilink-server/models"
	"agrilink-server/storage"
	"time"

	"github.com/kataras/iris/v12"
)

// GET /admin/stats
func AdminStats(ctx iris.Context) {
	var pendingVerifications int64
	storage.DB.Model(&models.VerificationRequest{}).Where("status = ?", models.RequestStatusPending).Count(&pendingVerifications)
	var flaggedProducts int64
	storage.DB.Model(&models.Product{}).Where("is_flagged = ?", true).Count(&flaggedProducts)
	var activeProducts int64
	storage.DB.Model(&models.Product{}).Where("status = ?", "active").Count(&activeProducts)

	since7 := time.Now().AddDate(0, 0, -7)
	since30 := time.Now().AddDate(0, 0, -30)
	var newUsers7, newUsers30 int64
	storage.DB.Model(&models.User{}).Where("created_at >= ?", since7).Count(&newUsers7)
	storage.DB.Model(&models.User{}).Where("created_at >= ?", since30).Count(&newUsers30)
	var newProducts7, newProducts30 int64
	storage.DB.Model(&models.Product{}).Where("created_at >= ?", since7).Count(&newProducts7)
	storage.DB.Model(&models.Product{}).Where("created_at >= ?", since30).Count(&newProducts30)

	ctx.JSON(iris.Map{
		"data": iris.Map{
			"pending_verifications": pendingVerifications,
			"flagged_products":      flaggedProducts,
			"active_products":       activeProducts,
			"new_users_7d":          newUsers7,
			"new_users_30d":         newUsers30,
			"new_products_7d":       newProducts7,
			"new_products_30d":      newProducts30,
		},
		"meta":  iris.Map{},
		"links": iris.Map{},
	})
}

// GET /admin/activity
func AdminActivity(ctx iris.Context) {
	var logs []models.AuditLog
	storage.DB.Order("created_at DESC").Limit(100).Find(&logs)
	ctx.JSON(iris.Map{"data": logs, "meta": iris.Map{}, "links": iris.Map{}})
}
