package initializers

import (
	"github.com/Kariqs/amexan-market/models"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func SyncDatabase(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductImage{},
		&models.Order{},
		&models.OrderLine{},
		&models.PaymentAttempt{},
		&models.Review{},
		&models.SavedProduct{},
	)
	if err != nil {
		return errors.Wrap(err, "auto migrate failed")
	}
	log.Info("Database synced successfully.")
	return nil
}
