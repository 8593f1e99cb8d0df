package main

import (
	"agrilink-server/routes"
	"agrilink-server/storage"
	"agrilink-server/utils"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	// Initialize services
	storage.InitializeDB()
	storage.InitializeMedia()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	// Minimal middleware - compression only
	app.Use(iris.Compression)

	// JWT Verifiers
	resetTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("EMAIL_TOKEN_SECRET")))
	resetTokenVerifier.WithDefaultBlocklist()
	resetTokenVerifierMiddleware := resetTokenVerifier.Verify(func() interface{} {
		return new(utils.ForgotPasswordToken)
	})

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	// Health check endpoint
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	// Routes
	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/register-phone", routes.RegisterPhone)
		user.Post("/login-phone", routes.LoginPhone)
		user.Post("/facebook", routes.FacebookLoginOrSignUp)
		user.Post("/google", routes.GoogleLoginOrSignUp)
		user.Post("/apple", routes.AppleLoginOrSignUp)
		user.Post("/forgotpassword", routes.ForgotPassword)
		user.Post("/resetpassword", resetTokenVerifierMiddleware, routes.ResetPassword)
		user.Get("/search", accessTokenVerifierMiddleware, routes.SearchUsers)
		user.Get("/{id}/products/saved", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetUserSavedProducts)
		user.Patch("/{id}/products/saved", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterUserSavedProducts)
		user.Patch("/{id}/pushtoken", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterPushToken)
		user.Patch("/{id}/settings/notifications", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AllowsNotifications)
		user.Patch("/{id}/profile", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.UpdateUserProfile)
		user.Get("/{id}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetUser)
		user.Post("/feedback", accessTokenVerifierMiddleware, routes.CreateFeedback)
	}

	verification := app.Party("/api/verification", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		verification.Get("/status", routes.GetVerificationStatus)
		verification.Post("/phone/send", routes.SendPhoneOTP)
		verification.Post("/phone/confirm", routes.ConfirmPhoneOTP)
		verification.Post("/documents/{kind}", routes.UploadDocument)
		verification.Delete("/documents/{kind}", routes.RemoveDocument)
		verification.Post("/business", routes.SubmitBusinessDetails)
		verification.Post("/request", routes.RequestVerification)
	}

	product := app.Party("/api/product")
	{
		product.Post("/", accessTokenVerifierMiddleware, routes.CreateProduct)
		product.Get("/{id}", routes.GetProduct)
		product.Get("/userid/{id}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetProductsByUserID)
		product.Delete("/{id}", accessTokenVerifierMiddleware, routes.DeleteProduct)
		product.Patch("/update/{id}", accessTokenVerifierMiddleware, routes.UpdateProduct)
		product.Delete("/image", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeleteProductImage)
	}

	// Products browsing/search
	products := app.Party("/api/products")
	{
		products.Get("/search", routes.SearchProducts)
	}

	market := app.Party("/api/market")
	{
		market.Get("/prices", routes.GetMarketPrices)
		market.Get("/compare", routes.GetPriceComparison)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", routes.AdminListUsers)
		admin.Patch("/users/{id:uint}/role", utils.SuperAdminOnlyMiddleware, routes.AdminChangeUserRole)
		admin.Get("/users/{id:uint}", routes.AdminGetUser)
		admin.Get("/verifications", routes.AdminListVerificationRequests)
		admin.Get("/verifications/{id:uint}", routes.AdminGetVerificationRequest)
		admin.Post("/verifications/{id:uint}/approve", routes.AdminApproveVerification)
		admin.Post("/verifications/{id:uint}/reject", routes.AdminRejectVerification)
		admin.Get("/products", routes.AdminListProducts)
		admin.Get("/products/{id:uint}", routes.AdminGetProduct)
		admin.Patch("/products/{id:uint}/status", routes.AdminUpdateProductStatus)
		admin.Post("/products/{id:uint}/flag", routes.AdminFlagProduct)
		admin.Get("/stats", routes.AdminStats)
		admin.Get("/activity", routes.AdminActivity)
	}

	conversation := app.Party("/api/conversation")
	{
		conversation.Post("/", accessTokenVerifierMiddleware, routes.StartConversation)
		conversation.Get("/{id:uint}", accessTokenVerifierMiddleware, routes.GetConversation)
		conversation.Get("/user/{id}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetConversationsByUserID)
		conversation.Post("/{id:uint}/typing", accessTokenVerifierMiddleware, routes.Typing)
		conversation.Get("/{id:uint}/typing", accessTokenVerifierMiddleware, routes.ListTyping)
	}

	messages := app.Party("/api/messages")
	{
		messages.Post("/", accessTokenVerifierMiddleware, routes.CreateMessage)
		messages.Get("/", accessTokenVerifierMiddleware, routes.ListMessages)
		messages.Post("/state", accessTokenVerifierMiddleware, routes.SetMessageState)
	}

	upload := app.Party("/api/upload")
	{
		upload.Post("/image", accessTokenVerifierMiddleware, routes.UploadImage)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000" // fallback for local dev
	}
	addr := ":" + port

	fmt.Println("Starting server on", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
