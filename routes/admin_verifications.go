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
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

// AdminListVerificationRequests - GET /admin/verifications?status=&page=&per_page=
func AdminListVerificationRequests(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	status := strings.TrimSpace(ctx.URLParamDefault("status", models.RequestStatusPending))

	query := storage.DB.Model(&models.VerificationRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var requests []models.VerificationRequest
	if err := query.Order("submitted_at ASC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&requests).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.JSONPage(ctx, requests, page, perPage, total)
}

// AdminGetVerificationRequest - GET /admin/verifications/:id
func AdminGetVerificationRequest(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	var request models.VerificationRequest
	if err := storage.DB.First(&request, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "verification request not found")
		return
	}

	// Live user record alongside the snapshot, when it still resolves.
	var user models.User
	userFound := storage.DB.First(&user, request.UserID).Error == nil

	payload := iris.Map{"request": request}
	if userFound {
		payload["user"] = user
	}
	ctx.JSON(iris.Map{"data": payload, "meta": iris.Map{}, "links": iris.Map{}})
}

// AdminApproveVerification - POST /admin/verifications/:id/approve { notes }
// The request row and the user row are committed as one transaction: either
// the request becomes approved AND the user gains the trust flags, or
// neither changes.
func AdminApproveVerification(ctx iris.Context) {
	reviewVerificationRequest(ctx, true)
}

// AdminRejectVerification - POST /admin/verifications/:id/reject { notes }
// Rejection notes are mandatory; an empty or whitespace notes field fails
// validation before anything is written.
func AdminRejectVerification(ctx iris.Context) {
	reviewVerificationRequest(ctx, false)
}

func reviewVerificationRequest(ctx iris.Context, approve bool) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	var body struct {
		Notes string `json:"notes"`
	}
	if err := ctx.ReadJSON(&body); err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_payload", "invalid payload")
		return
	}
	notes := strings.TrimSpace(body.Notes)
	if !approve && notes == "" {
		utils.JSONError(ctx, http.StatusUnprocessableEntity, "notes_required", "a rejection reason is required")
		return
	}

	var request models.VerificationRequest
	if err := storage.DB.First(&request, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "verification request not found")
		return
	}
	if request.Status != models.RequestStatusPending {
		utils.JSONError(ctx, http.StatusConflict, "already_reviewed", "request has already been reviewed")
		return
	}

	var user models.User
	if err := storage.DB.First(&user, request.UserID).Error; err != nil {
		// The snapshot outlived its user. Nothing is written so the request
		// stays reviewable once the inconsistency is resolved.
		utils.JSONError(ctx, http.StatusNotFound, "user_not_found", "target user record not found")
		return
	}

	var reviewerID *uint
	if tok := jsonWT.Get(ctx); tok != nil {
		if at, ok := tok.(*utils.AccessToken); ok {
			rid := at.ID
			reviewerID = &rid
		}
	}

	before := user
	now := time.Now()
	requested := false

	newStatus := models.RequestStatusRejected
	if approve {
		newStatus = models.RequestStatusApproved
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&request).Updates(map[string]interface{}{
			"status":       newStatus,
			"reviewed_at":  &now,
			"reviewed_by":  reviewerID,
			"review_notes": notes,
		}).Error; err != nil {
			return err
		}

		if approve {
			user.SetDocumentStatus(models.DocumentIDCard, models.DocStatusVerified)
			if request.Type == models.RequestTypeBusiness {
				user.SetDocumentStatus(models.DocumentBusinessLicense, models.DocStatusVerified)
			}
			verified := true
			updates := map[string]interface{}{
				"verification_status":                 models.VerificationVerified,
				"verification_documents":              user.VerificationDocuments,
				"verified":                            &verified,
				"agri_link_verification_requested":    &requested,
				"agri_link_verification_requested_at": nil,
			}
			if request.Type == models.RequestTypeBusiness {
				updates["business_verified"] = &verified
			}
			return tx.Model(&user).Updates(updates).Error
		}

		user.SetDocumentStatus(models.DocumentIDCard, models.DocStatusRejected)
		if request.Type == models.RequestTypeBusiness {
			user.SetDocumentStatus(models.DocumentBusinessLicense, models.DocStatusRejected)
		}
		unverified := false
		return tx.Model(&user).Updates(map[string]interface{}{
			"verification_status":                 models.VerificationRejected,
			"verification_documents":              user.VerificationDocuments,
			"verified":                            &unverified,
			"business_verified":                   &unverified,
			"agri_link_verification_requested":    &requested,
			"agri_link_verification_requested_at": nil,
		}).Error
	})
	if txErr != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", txErr.Error())
		return
	}

	action := "verification.reject"
	if approve {
		action = "verification.approve"
	}
	utils.Audit(ctx, action, "verification_request", request.ID, before, user)

	go services.NewNotificationService().SendVerificationOutcome(user.ID, approve)

	storage.DB.First(&request, request.ID)
	storage.DB.First(&user, user.ID)
	ctx.JSON(iris.Map{"data": iris.Map{
		"request": request,
		"user":    user,
		"trust":   models.ProjectTrust(&user),
	}})
}
