package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scan attributes one product page visit to a customer and locale.
// Rows are immutable. ProductID deliberately carries no foreign key so
// products can be deleted while their scans remain.
type Scan struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerEmail *string   `gorm:"index;size:320" json:"customer_email"`
	ProductID     uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	ScannedAt     time.Time `gorm:"index;not null" json:"scanned_at"`
	Locale        *string   `gorm:"size:8" json:"locale"`
}

// BeforeCreate assigns the id and server-side timestamp.
func (s *Scan) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.ScannedAt.IsZero() {
		s.ScannedAt = time.Now().UTC()
	}
	return nil
}
