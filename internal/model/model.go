package model

import (
	"gorm.io/gorm"
)

// AutoMigrate migrates the table registered under key
// AutoMigrate 迁移 key 对应的表
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "Preference":
		return db.AutoMigrate(Preference{})
	}
	return nil
}
