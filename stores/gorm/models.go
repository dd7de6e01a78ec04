package gorm

import (
	"time"

	ca "github.com/velumani/cloudauth"
)

// UserModel is the GORM model for credential records.
type UserModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash *string   `gorm:"size:128"`
	GoogleID     *string   `gorm:"size:64;index"`
	DisplayName  string    `gorm:"size:255"`
	Role         string    `gorm:"size:32"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *ca.User {
	return &ca.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		GoogleID:     m.GoogleID,
		DisplayName:  m.DisplayName,
		Role:         m.Role,
		CreatedAt:    m.CreatedAt,
	}
}
