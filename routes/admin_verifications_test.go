package routes

import (
	"agrilink-server/models"
	"fmt"
	"net/http"
	"testing"
	"time"

	"gorm.io/gorm"
)

// seedPendingRequest inserts a user mid-review together with their pending
// verification request.
func seedPendingRequest(t *testing.T, db *gorm.DB, accountType string) (*models.User, *models.VerificationRequest) {
	t.Helper()

	user := createTestUser(t, db, func(u *models.User) {
		u.Email = fmt.Sprintf("seller-%d@example.com", time.Now().UnixNano())
		u.AccountType = accountType
		u.PhoneVerified = boolPtr(true)
		u.VerificationStatus = models.VerificationUnderReview
		u.AgriLinkVerificationRequested = boolPtr(true)
	})
	user.SetDocumentStatus(models.DocumentIDCard, models.DocStatusUnderReview)
	if accountType == "business" {
		user.SetDocumentStatus(models.DocumentBusinessLicense, models.DocStatusUnderReview)
		user.BusinessName = "Golden Paddy Trading"
		user.BusinessLicenseNumber = "BL-1234"
	}
	db.Save(user)

	requestType := models.RequestTypeID
	if accountType == "business" {
		requestType = models.RequestTypeBusiness
	}
	request := models.VerificationRequest{
		UserID:      user.ID,
		UserEmail:   user.Email,
		UserName:    user.FirstName + " " + user.LastName,
		UserType:    user.UserType,
		AccountType: user.AccountType,
		Type:        requestType,
		Status:      models.RequestStatusPending,
		SubmittedAt: time.Now(),
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("failed to seed verification request: %v", err)
	}
	return user, &request
}

func TestAdminApproveVerification(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	user, request := seedPendingRequest(t, db, "individual")
	adminToken := signAccessToken(t, 999, "admin")

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/approve", request.ID), adminToken,
		map[string]string{"notes": "documents look good"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 approving, got %d: %s", resp.Code, resp.Body.String())
	}

	var reloadedRequest models.VerificationRequest
	db.First(&reloadedRequest, request.ID)
	if reloadedRequest.Status != models.RequestStatusApproved {
		t.Fatalf("expected approved request, got %q", reloadedRequest.Status)
	}
	if reloadedRequest.ReviewedAt == nil || reloadedRequest.ReviewedBy == nil || *reloadedRequest.ReviewedBy != 999 {
		t.Fatalf("expected reviewer metadata, got %+v", reloadedRequest)
	}

	var reloadedUser models.User
	db.First(&reloadedUser, user.ID)
	if reloadedUser.VerificationStatus != models.VerificationVerified {
		t.Fatalf("expected verified user, got %q", reloadedUser.VerificationStatus)
	}
	if reloadedUser.Verified == nil || !*reloadedUser.Verified {
		t.Fatal("expected verified flag set")
	}
	if got := reloadedUser.DocumentStatus(models.DocumentIDCard); got != models.DocStatusVerified {
		t.Fatalf("expected idCard verified, got %q", got)
	}
	if reloadedUser.AgriLinkVerificationRequested != nil && *reloadedUser.AgriLinkVerificationRequested {
		t.Fatal("expected requested flag cleared after review")
	}
	if trust := models.ProjectTrust(&reloadedUser); trust.Level != 1 {
		t.Fatalf("expected trust level 1, got %d", trust.Level)
	}
}

func TestAdminApproveBusinessVerification(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	user, request := seedPendingRequest(t, db, "business")
	adminToken := signAccessToken(t, 999, "admin")

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/approve", request.ID), adminToken,
		map[string]string{})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 approving, got %d: %s", resp.Code, resp.Body.String())
	}

	var reloadedUser models.User
	db.First(&reloadedUser, user.ID)
	if reloadedUser.BusinessVerified == nil || !*reloadedUser.BusinessVerified {
		t.Fatal("expected business verified flag set")
	}
	if got := reloadedUser.DocumentStatus(models.DocumentBusinessLicense); got != models.DocStatusVerified {
		t.Fatalf("expected businessLicense verified, got %q", got)
	}
	if trust := models.ProjectTrust(&reloadedUser); trust.Level != 2 {
		t.Fatalf("expected trust level 2, got %d", trust.Level)
	}
}

func TestAdminRejectRequiresNotes(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	user, request := seedPendingRequest(t, db, "individual")
	adminToken := signAccessToken(t, 999, "admin")

	for _, notes := range []string{"", "   "} {
		resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/reject", request.ID), adminToken,
			map[string]string{"notes": notes})
		if resp.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for notes %q, got %d", notes, resp.Code)
		}
	}

	// Nothing may have been written
	var reloadedRequest models.VerificationRequest
	db.First(&reloadedRequest, request.ID)
	if reloadedRequest.Status != models.RequestStatusPending {
		t.Fatalf("expected request still pending, got %q", reloadedRequest.Status)
	}
	var reloadedUser models.User
	db.First(&reloadedUser, user.ID)
	if reloadedUser.VerificationStatus != models.VerificationUnderReview {
		t.Fatalf("expected user still under review, got %q", reloadedUser.VerificationStatus)
	}
}

func TestAdminRejectThenResubmit(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	user, request := seedPendingRequest(t, db, "individual")
	adminToken := signAccessToken(t, 999, "admin")

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/reject", request.ID), adminToken,
		map[string]string{"notes": "ID card photo is unreadable"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 rejecting, got %d: %s", resp.Code, resp.Body.String())
	}

	var reloadedUser models.User
	db.First(&reloadedUser, user.ID)
	if reloadedUser.VerificationStatus != models.VerificationRejected {
		t.Fatalf("expected rejected user, got %q", reloadedUser.VerificationStatus)
	}
	if got := reloadedUser.DocumentStatus(models.DocumentIDCard); got != models.DocStatusRejected {
		t.Fatalf("expected idCard rejected, got %q", got)
	}

	// A rejected user may start over: upload a new document and resubmit
	userToken := signAccessToken(t, user.ID, "user")
	resp = doJSON(t, app, http.MethodPost, "/api/verification/documents/idCard", userToken,
		map[string]string{"data": "https://cdn.example.com/docs/id-retake.jpg"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 re-uploading after rejection, got %d: %s", resp.Code, resp.Body.String())
	}
	resp = doJSON(t, app, http.MethodPost, "/api/verification/request", userToken, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 resubmitting after rejection, got %d: %s", resp.Code, resp.Body.String())
	}

	var pending int64
	db.Model(&models.VerificationRequest{}).Where("user_id = ? AND status = ?", user.ID, models.RequestStatusPending).Count(&pending)
	if pending != 1 {
		t.Fatalf("expected one new pending request, found %d", pending)
	}
}

func TestAdminReviewIsFinal(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	_, request := seedPendingRequest(t, db, "individual")
	adminToken := signAccessToken(t, 999, "admin")

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/approve", request.ID), adminToken,
		map[string]string{})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on first review, got %d", resp.Code)
	}

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/reject", request.ID), adminToken,
		map[string]string{"notes": "changed my mind"})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second review, got %d", resp.Code)
	}
}

func TestAdminReviewMissingUserWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	request := models.VerificationRequest{
		UserID:      424242,
		UserEmail:   "ghost@example.com",
		Type:        models.RequestTypeID,
		Status:      models.RequestStatusPending,
		SubmittedAt: time.Now(),
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("failed to seed request: %v", err)
	}
	adminToken := signAccessToken(t, 999, "admin")

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/admin/verifications/%d/approve", request.ID), adminToken,
		map[string]string{})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing user, got %d", resp.Code)
	}

	var reloaded models.VerificationRequest
	db.First(&reloaded, request.ID)
	if reloaded.Status != models.RequestStatusPending {
		t.Fatalf("expected request untouched, got %q", reloaded.Status)
	}
}

func TestAdminListVerificationRequests(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	older, _ := seedPendingRequest(t, db, "individual")
	db.Model(&models.VerificationRequest{}).Where("user_id = ?", older.ID).
		Update("submitted_at", time.Now().Add(-48*time.Hour))
	seedPendingRequest(t, db, "business")

	adminToken := signAccessToken(t, 999, "admin")
	resp := doJSON(t, app, http.MethodGet, "/api/admin/verifications", adminToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeBody(t, resp)
	data, ok := body["data"].([]interface{})
	if !ok || len(data) != 2 {
		t.Fatalf("expected 2 pending requests, got %v", body["data"])
	}
	// Oldest submission first
	first := data[0].(map[string]interface{})
	if uint(first["userID"].(float64)) != older.ID {
		t.Fatalf("expected oldest submission first, got %v", first)
	}
}
