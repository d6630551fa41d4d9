// pkg/db/repository.go
package db

import (
	"fmt"
	"strconv"

	"github.com/smith3v/flashcard-trainer/pkg/config"
	"github.com/smith3v/flashcard-trainer/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Export DB variable
var DB *gorm.DB

func InitDB(cfg config.StorageConfig, dbCfg config.DatabaseConfig) error {
	gormLogger, gormErr := newGormLogger(config.AppConfig.Logging.GormLevel)
	if gormErr != nil {
		logger.Error("invalid gorm log level", "value", config.AppConfig.Logging.GormLevel, "error", gormErr)
	}

	var dialector gorm.Dialector
	switch cfg.Backend {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	case "postgres", "":
		dsn := "host=" + dbCfg.Host +
			" user=" + dbCfg.User +
			" password=" + dbCfg.Password +
			" dbname=" + dbCfg.DBName +
			" port=" + strconv.Itoa(dbCfg.Port) +
			" sslmode=" + dbCfg.SSLMode
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database backend %q", cfg.Backend)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}
	if err := DB.AutoMigrate(&Flashcard{}, &UserSettings{}); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		return err
	}
	return nil
}

// DailyNewCardOverride returns the per-user new-card limit when one is set.
// The second return is false when the database is not configured or the user
// has no explicit setting.
func DailyNewCardOverride(userID string) (int, bool) {
	if DB == nil {
		return 0, false
	}
	var settings UserSettings
	if err := DB.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return 0, false
	}
	if settings.DailyNewCards < 0 {
		return 0, false
	}
	return settings.DailyNewCards, true
}
