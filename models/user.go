package models

import "time"

type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	Username  string `gorm:"size:64;uniqueIndex;not null"`
	Password  string `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time
}
