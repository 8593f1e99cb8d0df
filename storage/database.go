package storage

import (
	"agrilink-server/models"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func connectToDB() *gorm.DB {
	// Only load .env in development (when RENDER env var is not set)
	if os.Getenv("RENDER") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Could not load .env file (this is normal in production)")
		}
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Panic("DB_CONNECTION_STRING environment variable is required")
	}

	db, dbError := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if dbError != nil {
		log.Panic("error connection to db: " + dbError.Error())
	}

	DB = db
	return db
}

func performMigrations(db *gorm.DB) {
	db.AutoMigrate(
		&models.Conversation{}, // create table containing many side first
		&models.Message{},
		&models.User{},
		&models.Product{},
		&models.VerificationRequest{},
		&models.MarketPrice{},
		&models.AuditLog{},
		&models.Feedback{},
	)

	// At most one non-terminal verification request per user. The workflow
	// route treats a conflict here as "already requested".
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_verification_requests_active ON verification_requests (user_id) WHERE status = 'pending';")

	// One price row per crop/region pair; the seed script upserts on it.
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_market_prices_crop_region ON market_prices (crop, region);")
}

func InitializeDB() *gorm.DB {
	db := connectToDB()
	performMigrations(db)
	return db
}
