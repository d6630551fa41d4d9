package config

import (
	"encoding/json"
	"os"

	"github.com/smith3v/flashcard-trainer/pkg/logger"
)

type Config struct {
	Database DatabaseConfig `json:"database"`
	Storage  StorageConfig  `json:"storage"`
	Srs      SrsConfig      `json:"srs"`
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	SSLMode  string `json:"sslmode"`
}

// StorageConfig selects the card store backend. Backend is one of
// "postgres", "sqlite", or "file"; Path is the sqlite database file or the
// JSON card file depending on the backend.
type StorageConfig struct {
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// SrsConfig holds the scheduling knobs. DailyNewCardLimit is decoded as a
// JSON number; the selector floors it and falls back to a default when it is
// negative or not finite.
type SrsConfig struct {
	DailyNewCardLimit float64 `json:"daily_new_card_limit"`
}

type TelegramConfig struct {
	Token string `json:"token"`
}

type LoggingConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	GormLevel string `json:"gorm_level"`
}

var AppConfig Config

func LoadConfig(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		logger.Error("failed to open config file", "error", err)
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&AppConfig); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	return nil
}
