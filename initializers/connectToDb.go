package initializers

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormConfig is shared by production and test connections. TranslateError turns driver
// duplicate-key errors into gorm.ErrDuplicatedKey, which the unique indexes rely on.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}

func ConnectToDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), GormConfig())
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	log.Info("Connected to database.")
	return db, nil
}
