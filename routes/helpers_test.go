package routes

import (
	"agrilink-server/models"
	"agrilink-server/storage"
	"agrilink-server/utils"
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points storage.DB at a fresh in-memory SQLite database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	// A single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Conversation{},
		&models.Message{},
		&models.User{},
		&models.Product{},
		&models.VerificationRequest{},
		&models.MarketPrice{},
		&models.AuditLog{},
		&models.Feedback{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_verification_requests_active ON verification_requests (user_id) WHERE status = 'pending';")

	storage.DB = db
	return db
}

// signAccessToken returns a signed access token for the given user
func signAccessToken(t *testing.T, id uint, role string) string {
	t.Helper()
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, err := signer.Sign(utils.AccessToken{ID: id, Role: role})
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return string(token)
}

func accessVerifierMiddleware() iris.Handler {
	verifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	return verifier.Verify(func() interface{} { return new(utils.AccessToken) })
}

// buildVerificationTestApp wires the verification and admin parties the same
// way main does.
func buildVerificationTestApp(t *testing.T) *iris.Application {
	t.Helper()
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	app := iris.New()
	app.Validator = validator.New()

	accessTokenVerifierMiddleware := accessVerifierMiddleware()

	verification := app.Party("/api/verification", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		verification.Get("/status", GetVerificationStatus)
		verification.Post("/documents/{kind}", UploadDocument)
		verification.Delete("/documents/{kind}", RemoveDocument)
		verification.Post("/business", SubmitBusinessDetails)
		verification.Post("/request", RequestVerification)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", AdminListUsers)
		admin.Get("/verifications", AdminListVerificationRequests)
		admin.Get("/verifications/{id:uint}", AdminGetVerificationRequest)
		admin.Post("/verifications/{id:uint}/approve", AdminApproveVerification)
		admin.Post("/verifications/{id:uint}/reject", AdminRejectVerification)
	}

	if err := app.Build(); err != nil {
		t.Fatalf("failed to build test app: %v", err)
	}
	return app
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, app *iris.Application, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", resp.Body.String(), err)
	}
	return out
}

// createTestUser inserts a user and returns it reloaded from the database.
func createTestUser(t *testing.T, db *gorm.DB, mutate func(*models.User)) *models.User {
	t.Helper()
	user := models.User{
		FirstName:   "Aung",
		LastName:    "Min",
		Email:       "aung@example.com",
		UserType:    "farmer",
		AccountType: "individual",
		Role:        "user",
	}
	if mutate != nil {
		mutate(&user)
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return &user
}

func boolPtr(b bool) *bool { return &b }
