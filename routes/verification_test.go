package routes

import (
	"agrilink-server/models"
	"net/http"
	"testing"
)

func TestRequestVerificationMissingSteps(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	user := createTestUser(t, db, func(u *models.User) {
		u.AccountType = "business"
		u.UserType = "trader"
	})
	token := signAccessToken(t, user.ID, "user")

	resp := doJSON(t, app, http.MethodPost, "/api/verification/request", token, nil)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for incomplete steps, got %d: %s", resp.Code, resp.Body.String())
	}

	body := decodeBody(t, resp)
	steps, ok := body["missingSteps"].([]interface{})
	if !ok {
		t.Fatalf("expected missingSteps array, got %v", body)
	}
	want := map[string]bool{
		"phone verification":      false,
		"ID card upload":          false,
		"business license upload": false,
	}
	for _, s := range steps {
		if _, known := want[s.(string)]; known {
			want[s.(string)] = true
		}
	}
	for step, seen := range want {
		if !seen {
			t.Errorf("expected %q in missing steps, got %v", step, steps)
		}
	}

	// No request row may exist after a refused submission
	var count int64
	db.Model(&models.VerificationRequest{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no verification requests, found %d", count)
	}
}

func TestUploadDocumentAndRequestFlow(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	user := createTestUser(t, db, func(u *models.User) {
		u.PhoneNumber = "959123456789"
		u.PhoneVerified = boolPtr(true)
	})
	token := signAccessToken(t, user.ID, "user")

	resp := doJSON(t, app, http.MethodPost, "/api/verification/documents/idCard", token,
		map[string]string{"data": "https://cdn.example.com/docs/id-front.jpg"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 uploading document, got %d: %s", resp.Code, resp.Body.String())
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if got := reloaded.DocumentStatus(models.DocumentIDCard); got != models.DocStatusUploaded {
		t.Fatalf("expected idCard uploaded, got %q", got)
	}
	if got := reloaded.DocumentURL(models.DocumentIDCard); got != "https://cdn.example.com/docs/id-front.jpg" {
		t.Fatalf("unexpected document URL %q", got)
	}

	resp = doJSON(t, app, http.MethodPost, "/api/verification/request", token, nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating request, got %d: %s", resp.Code, resp.Body.String())
	}

	db.First(&reloaded, user.ID)
	if reloaded.VerificationStatus != models.VerificationUnderReview {
		t.Fatalf("expected user under_review, got %q", reloaded.VerificationStatus)
	}
	if got := reloaded.DocumentStatus(models.DocumentIDCard); got != models.DocStatusUnderReview {
		t.Fatalf("expected idCard under_review, got %q", got)
	}
	if reloaded.AgriLinkVerificationRequested == nil || !*reloaded.AgriLinkVerificationRequested {
		t.Fatal("expected verification requested flag set")
	}

	var request models.VerificationRequest
	if err := db.Where("user_id = ?", user.ID).First(&request).Error; err != nil {
		t.Fatalf("expected a verification request row: %v", err)
	}
	if request.Status != models.RequestStatusPending {
		t.Fatalf("expected pending request, got %q", request.Status)
	}
	if request.Type != models.RequestTypeID {
		t.Fatalf("expected id request type, got %q", request.Type)
	}
	if request.UserEmail != user.Email {
		t.Fatalf("expected snapshot email %q, got %q", user.Email, request.UserEmail)
	}

	// A second submission must not create a second pending row
	resp = doJSON(t, app, http.MethodPost, "/api/verification/request", token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate request, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeBody(t, resp)
	if already, _ := body["alreadyRequested"].(bool); !already {
		t.Fatalf("expected alreadyRequested response, got %v", body)
	}
	var count int64
	db.Model(&models.VerificationRequest{}).Where("user_id = ? AND status = ?", user.ID, models.RequestStatusPending).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one pending request, found %d", count)
	}
}

func TestUploadDocumentBlockedDuringReview(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	user := createTestUser(t, db, func(u *models.User) {
		u.PhoneVerified = boolPtr(true)
		u.VerificationStatus = models.VerificationUnderReview
	})
	token := signAccessToken(t, user.ID, "user")

	resp := doJSON(t, app, http.MethodPost, "/api/verification/documents/idCard", token,
		map[string]string{"data": "https://cdn.example.com/docs/id-front.jpg"})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 while under review, got %d", resp.Code)
	}

	resp = doJSON(t, app, http.MethodDelete, "/api/verification/documents/idCard", token, nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 removing document while under review, got %d", resp.Code)
	}
}

func TestRemoveDocumentResetsOnlyTheDocument(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	user := createTestUser(t, db, func(u *models.User) {
		u.PhoneVerified = boolPtr(true)
		u.VerificationStatus = models.VerificationRejected
	})
	user.SetDocumentStatus(models.DocumentIDCard, models.DocStatusRejected)
	user.SetDocumentURL(models.DocumentIDCard, "https://cdn.example.com/docs/old.jpg")
	db.Save(user)

	token := signAccessToken(t, user.ID, "user")

	resp := doJSON(t, app, http.MethodDelete, "/api/verification/documents/idCard", token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 removing document, got %d: %s", resp.Code, resp.Body.String())
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if got := reloaded.DocumentStatus(models.DocumentIDCard); got != models.DocStatusPending {
		t.Fatalf("expected idCard pending after removal, got %q", got)
	}
	if got := reloaded.DocumentURL(models.DocumentIDCard); got != "" {
		t.Fatalf("expected cleared URL, got %q", got)
	}
	// Removing a document never touches the overall verification status
	if reloaded.VerificationStatus != models.VerificationRejected {
		t.Fatalf("expected verification status unchanged, got %q", reloaded.VerificationStatus)
	}
}

func TestUploadDocumentRejectsBadPayloads(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	user := createTestUser(t, db, nil)
	token := signAccessToken(t, user.ID, "user")

	resp := doJSON(t, app, http.MethodPost, "/api/verification/documents/idCard", token,
		map[string]string{"data": "data:application/pdf;base64,JVBERi0xLjQ="})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image payload, got %d", resp.Code)
	}

	resp = doJSON(t, app, http.MethodPost, "/api/verification/documents/passport", token,
		map[string]string{"data": "https://cdn.example.com/docs/id.jpg"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown document kind, got %d", resp.Code)
	}
}

func TestSubmitBusinessDetails(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	user := createTestUser(t, db, func(u *models.User) {
		u.AccountType = "business"
	})
	token := signAccessToken(t, user.ID, "user")

	resp := doJSON(t, app, http.MethodPost, "/api/verification/business", token,
		map[string]string{"businessName": "  ", "businessLicenseNumber": "BL-1234"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank business name, got %d", resp.Code)
	}

	resp = doJSON(t, app, http.MethodPost, "/api/verification/business", token,
		map[string]string{"businessName": "Golden Paddy Trading", "businessLicenseNumber": "BL-1234"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 submitting business details, got %d: %s", resp.Code, resp.Body.String())
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if reloaded.BusinessName != "Golden Paddy Trading" || reloaded.BusinessLicenseNumber != "BL-1234" {
		t.Fatalf("business details not persisted: %q %q", reloaded.BusinessName, reloaded.BusinessLicenseNumber)
	}
}

func TestGetVerificationStatus(t *testing.T) {
	db := setupTestDB(t)
	app := buildVerificationTestApp(t)

	user := createTestUser(t, db, func(u *models.User) {
		u.PhoneVerified = boolPtr(true)
		u.VerificationStatus = models.VerificationVerified
		u.Verified = boolPtr(true)
	})
	token := signAccessToken(t, user.ID, "user")

	resp := doJSON(t, app, http.MethodGet, "/api/verification/status", token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeBody(t, resp)

	trust, ok := body["trust"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected trust projection, got %v", body)
	}
	if level, _ := trust["level"].(float64); level != 1 {
		t.Fatalf("expected trust level 1, got %v", trust["level"])
	}

	steps, ok := body["steps"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected steps map, got %v", body)
	}
	if verified, _ := steps["phoneVerified"].(bool); !verified {
		t.Fatalf("expected phoneVerified step true, got %v", steps)
	}
}
