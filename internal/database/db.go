package database

import (
	"catering-backend/internal/config"
	"catering-backend/internal/logging"
	"catering-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	log := logging.GetLogger()

	var err error
	DB, err = Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	log.Info("database connected, migration completed")
}

func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.AuditLog{},
		&models.Insumo{},
		&models.StockMovement{},
		&models.PurchaseRecord{},
		&models.UrgentPurchaseRequest{},
		&models.Plato{},
		&models.PlatoInsumo{},
		&models.Menu{},
		&models.MenuPlato{},
	)
}
