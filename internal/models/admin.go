package models

// AdminUser can sign in to the dashboard and manage the catalog.
type AdminUser struct {
	BaseModel
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `json:"-"`
}
