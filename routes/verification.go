package routes

import (
	"agrilink-server/models"
	"agrilink-server/services"
	"agrilink-server/storage"
	"agrilink-server/utils"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// Decoded document payloads are capped at 10MB.
const maxDocumentBytes = 10 * 1024 * 1024

// SendPhoneOTP persists the pending phone number on the user record, then
// dispatches a one-time code. A dispatch failure leaves the phone number
// persisted but nothing else; the client stays on the "enter code" step.
func SendPhoneOTP(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input SendPhoneOTPInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !utils.ValidatePhoneNumber(input.PhoneNumber) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid phone number format. Myanmar mobile numbers start with 09.", ctx)
		return
	}

	user := currentUser(userID, ctx)
	if user == nil {
		return
	}

	formattedPhone := utils.NormalizePhoneNumber(input.PhoneNumber)
	if err := storage.DB.Model(user).Update("phone_number", formattedPhone).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if err := services.SendPhoneOTP(ctx.Request().Context(), formattedPhone); err != nil {
		if errors.Is(err, services.ErrOTPThrottled) {
			utils.CreateError(iris.StatusTooManyRequests, "Too Many Requests", "A code was sent recently. Wait a minute before requesting another.", ctx)
			return
		}
		utils.CreateError(iris.StatusBadGateway, "SMS Error", "Could not send the verification code. Try again.", ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "phoneNumber": formattedPhone})
}

// ConfirmPhoneOTP checks the user-entered code. Only a gateway-confirmed code
// mutates the user record.
func ConfirmPhoneOTP(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input ConfirmPhoneOTPInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	user := currentUser(userID, ctx)
	if user == nil {
		return
	}
	if user.PhoneNumber == "" {
		utils.CreateError(iris.StatusBadRequest, "Verification Error", "No phone number on record. Request a code first.", ctx)
		return
	}

	if err := services.CheckPhoneOTP(ctx.Request().Context(), user.PhoneNumber, input.Code); err != nil {
		status := iris.StatusUnauthorized
		detail := "The code is incorrect."
		if errors.Is(err, services.ErrOTPExpired) {
			status = iris.StatusGone
			detail = "The code expired. Request a new one."
		}
		utils.CreateError(status, "Verification Error", detail, ctx)
		return
	}

	now := time.Now()
	verified := true
	updates := map[string]interface{}{
		"phone_verified":          &verified,
		"phone_verification_date": &now,
	}
	if err := storage.DB.Model(user).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "phoneVerified": true, "phoneVerificationDate": now})
}

// UploadDocument accepts an image for a verification document kind and moves
// that document pending -> uploaded. This route is the only writer allowed to
// perform that transition; review outcomes belong to the admin routes.
func UploadDocument(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	kind := ctx.Params().Get("kind")
	if kind != models.DocumentIDCard && kind != models.DocumentBusinessLicense {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Unknown document kind.", ctx)
		return
	}

	var input UploadDocumentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	user := currentUser(userID, ctx)
	if user == nil {
		return
	}

	if user.VerificationStatus == models.VerificationUnderReview || (user.Verified != nil && *user.Verified) {
		utils.CreateError(iris.StatusConflict, "Verification Error", "Documents cannot change while a review is in progress or after approval.", ctx)
		return
	}

	docURL := input.Data
	if !storage.IsHostedURL(docURL) {
		if err := validateImagePayload(input.Data); err != nil {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
			return
		}
		urlMap := storage.UploadBase64Image(input.Data, fmt.Sprintf("verification/%d/%s", user.ID, kind))
		if urlMap == nil || urlMap["url"] == "" {
			utils.CreateError(iris.StatusBadGateway, "Upload Error", "Document upload failed. Try again.", ctx)
			return
		}
		docURL = urlMap["url"]
	}

	user.SetDocumentStatus(kind, models.DocStatusUploaded)
	user.SetDocumentURL(kind, docURL)
	updates := map[string]interface{}{
		"verification_documents":     user.VerificationDocuments,
		"verification_document_urls": user.VerificationDocumentURLs,
	}
	if err := storage.DB.Model(user).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "kind": kind, "status": models.DocStatusUploaded, "url": docURL})
}

// RemoveDocument clears an uploaded document. Refused once the account is
// under review or verified; the document returns to pending and the overall
// verification status is left untouched.
func RemoveDocument(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	kind := ctx.Params().Get("kind")
	if kind != models.DocumentIDCard && kind != models.DocumentBusinessLicense {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Unknown document kind.", ctx)
		return
	}

	user := currentUser(userID, ctx)
	if user == nil {
		return
	}

	if user.VerificationStatus == models.VerificationUnderReview || (user.Verified != nil && *user.Verified) {
		utils.CreateError(iris.StatusConflict, "Verification Error", "Documents cannot be removed while a review is in progress or after approval.", ctx)
		return
	}

	if old := user.DocumentURL(kind); old != "" {
		go storage.DeleteImage(old)
	}

	user.SetDocumentStatus(kind, models.DocStatusPending)
	user.SetDocumentURL(kind, "")
	updates := map[string]interface{}{
		"verification_documents":     user.VerificationDocuments,
		"verification_document_urls": user.VerificationDocumentURLs,
	}
	if err := storage.DB.Model(user).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "kind": kind, "status": models.DocStatusPending})
}

// SubmitBusinessDetails persists the business name and license number.
func SubmitBusinessDetails(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input BusinessDetailsInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if strings.TrimSpace(input.BusinessName) == "" || strings.TrimSpace(input.BusinessLicenseNumber) == "" {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Business name and license number are required.", ctx)
		return
	}

	user := currentUser(userID, ctx)
	if user == nil {
		return
	}

	updates := map[string]interface{}{
		"business_name":           strings.TrimSpace(input.BusinessName),
		"business_license_number": strings.TrimSpace(input.BusinessLicenseNumber),
	}
	if err := storage.DB.Model(user).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}

// RequestVerification creates the review request once every prerequisite step
// is complete. The request snapshot and the user flags are written in one
// transaction; a user with a request already pending gets "already requested"
// back instead of a duplicate row.
func RequestVerification(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	user := currentUser(userID, ctx)
	if user == nil {
		return
	}

	missing := missingVerificationSteps(user)
	if len(missing) > 0 {
		ctx.StatusCode(iris.StatusUnprocessableEntity)
		ctx.JSON(iris.Map{
			"error":        "missing_steps",
			"message":      "Complete the remaining steps first: " + strings.Join(missing, ", "),
			"missingSteps": missing,
		})
		return
	}

	var existing models.VerificationRequest
	if err := storage.DB.Where("user_id = ? AND status = ?", user.ID, models.RequestStatusPending).First(&existing).Error; err == nil {
		ctx.JSON(iris.Map{"success": true, "alreadyRequested": true, "request": existing})
		return
	}

	requestType := models.RequestTypeID
	if user.IsBusinessAccount() {
		requestType = models.RequestTypeBusiness
	}

	docs := map[string]models.RequestDocument{
		models.DocumentIDCard: {Status: models.DocStatusUnderReview, URL: user.DocumentURL(models.DocumentIDCard)},
	}
	if user.IsBusinessAccount() {
		docs[models.DocumentBusinessLicense] = models.RequestDocument{
			Status: models.DocStatusUnderReview,
			URL:    user.DocumentURL(models.DocumentBusinessLicense),
		}
	}
	docsJSON, err := json.Marshal(docs)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	now := time.Now()
	request := models.VerificationRequest{
		UserID:      user.ID,
		UserEmail:   user.Email,
		UserName:    strings.TrimSpace(user.FirstName + " " + user.LastName),
		UserType:    user.UserType,
		AccountType: user.AccountType,
		Type:        requestType,
		Status:      models.RequestStatusPending,
		Documents:   docsJSON,
		SubmittedAt: now,
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return err
		}

		user.SetDocumentStatus(models.DocumentIDCard, models.DocStatusUnderReview)
		if user.IsBusinessAccount() {
			user.SetDocumentStatus(models.DocumentBusinessLicense, models.DocStatusUnderReview)
		}
		requested := true
		return tx.Model(user).Updates(map[string]interface{}{
			"verification_status":                 models.VerificationUnderReview,
			"verification_documents":              user.VerificationDocuments,
			"agri_link_verification_requested":    &requested,
			"agri_link_verification_requested_at": &now,
		}).Error
	})
	if txErr != nil {
		// A concurrent duplicate submission trips the partial unique index;
		// report it the same way as the pre-check.
		if strings.Contains(strings.ToLower(txErr.Error()), "unique") || strings.Contains(strings.ToLower(txErr.Error()), "duplicate") {
			ctx.JSON(iris.Map{"success": true, "alreadyRequested": true})
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"success": true, "request": request})
}

// GetVerificationStatus returns the trust projection plus per-step state for
// the verification screen.
func GetVerificationStatus(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	user := currentUser(userID, ctx)
	if user == nil {
		return
	}

	projection := models.ProjectTrust(user)

	var activeRequest *models.VerificationRequest
	var request models.VerificationRequest
	if err := storage.DB.Where("user_id = ? AND status = ?", user.ID, models.RequestStatusPending).First(&request).Error; err == nil {
		activeRequest = &request
	}

	ctx.JSON(iris.Map{
		"trust": projection,
		"steps": iris.Map{
			"phoneVerified":           user.PhoneVerified != nil && *user.PhoneVerified,
			"idCardStatus":            user.DocumentStatus(models.DocumentIDCard),
			"businessLicenseStatus":   user.DocumentStatus(models.DocumentBusinessLicense),
			"businessDetailsProvided": user.BusinessName != "" && user.BusinessLicenseNumber != "",
			"businessAccount":         user.IsBusinessAccount(),
		},
		"verificationStatus": user.VerificationStatus,
		"activeRequest":      activeRequest,
		"missingSteps":       missingVerificationSteps(user),
	})
}

// missingVerificationSteps lists the prerequisite steps still outstanding
// before a verification request may be submitted.
func missingVerificationSteps(u *models.User) []string {
	missing := []string{}
	if u.PhoneVerified == nil || !*u.PhoneVerified {
		missing = append(missing, "phone verification")
	}
	if s := u.DocumentStatus(models.DocumentIDCard); s != models.DocStatusUploaded && s != models.DocStatusUnderReview {
		missing = append(missing, "ID card upload")
	}
	if u.IsBusinessAccount() {
		if s := u.DocumentStatus(models.DocumentBusinessLicense); s != models.DocStatusUploaded && s != models.DocStatusUnderReview {
			missing = append(missing, "business license upload")
		}
	}
	return missing
}

// validateImagePayload checks that an inline payload is an image and that the
// decoded size stays under the 10MB cap.
func validateImagePayload(data string) error {
	payload := data
	if strings.HasPrefix(data, "data:") {
		if !strings.HasPrefix(data, "data:image/") {
			return errors.New("document must be an image")
		}
		i := strings.Index(data, ",")
		if i == -1 {
			return errors.New("malformed data URL")
		}
		payload = data[i+1:]
	}

	// Decoded size is ~3/4 of the base64 length; reject before decoding.
	if len(payload)/4*3 > maxDocumentBytes {
		return errors.New("document exceeds the 10MB limit")
	}
	probe := payload
	if len(probe) > 64 {
		probe = probe[:64]
	}
	if _, err := base64.StdEncoding.DecodeString(probe); err != nil {
		return errors.New("document payload is not valid base64")
	}
	return nil
}

// currentUser loads the authenticated user or writes a 404.
func currentUser(userID uint, ctx iris.Context) *models.User {
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		ctx.StatusCode(http.StatusNotFound)
		ctx.JSON(iris.Map{"message": "User not found"})
		return nil
	}
	return &user
}

type SendPhoneOTPInput struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

type ConfirmPhoneOTPInput struct {
	Code string `json:"code" validate:"required,len=6"`
}

type UploadDocumentInput struct {
	Data string `json:"data" validate:"required"` // base64 payload or an already-hosted URL
}

type BusinessDetailsInput struct {
	BusinessName          string `json:"businessName" validate:"required,max=256"`
	BusinessLicenseNumber string `json:"businessLicenseNumber" validate:"required,max=128"`
}
