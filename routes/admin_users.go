package routes

import (
	"agrilink-server/models"
	"agrilink-server/storage"
	"agrilink-server/utils"
	"net/http"

	"github.com/kataras/iris/v12"
)

// GET /admin/users handled in admin.go (AdminListUsers)

// GET /admin/users/:id — full user info + verification history + recent activity
func AdminGetUser(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "user not found")
		return
	}

	var requests []models.VerificationRequest
	storage.DB.Where("user_id = ?", id).Order("created_at DESC").Find(&requests)

	var products []models.Product
	storage.DB.Where("seller_id = ?", id).Order("created_at DESC").Limit(20).Find(&products)

	var actions []models.AuditLog
	storage.DB.Where("admin_user_id = ?", id).Order("created_at DESC").Limit(50).Find(&actions)

	ctx.JSON(iris.Map{
		"data": iris.Map{
			"user":                 user,
			"trust":                models.ProjectTrust(&user),
			"verificationRequests": requests,
			"products":             products,
			"recentAdminActions":   actions,
		},
		"meta":  iris.Map{},
		"links": iris.Map{},
	})
}
