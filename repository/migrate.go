package repository

import (
	"breadit/models"

	"gorm.io/gorm"
)

// AutoMigrate 迁移 users / posts / votes 三张表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Post{}, &models.Vote{})
}
