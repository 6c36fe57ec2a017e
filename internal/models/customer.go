package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is a visitor who registered on a product page. Email is the
// natural key; names are written once and never overwritten.
type Customer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	Email      string    `gorm:"uniqueIndex;size:320;not null" json:"email"`
	FirstName  string    `gorm:"not null" json:"first_name"`
	LastName   string    `gorm:"not null" json:"last_name"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `gorm:"not null" json:"last_seen_at"`
}

// BeforeCreate ensures UUIDs are generated for new records.
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Identity is the (email, first name, last name) tuple a visitor carries
// in their identity cache.
type Identity struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Clone returns a copy that shares no memory with i, for identities built
// from request buffers that fasthttp recycles.
func (i Identity) Clone() Identity {
	return Identity{
		Email:     strings.Clone(i.Email),
		FirstName: strings.Clone(i.FirstName),
		LastName:  strings.Clone(i.LastName),
	}
}

// DisplayName joins the name fields for presentation.
func (i Identity) DisplayName() string {
	switch {
	case i.FirstName == "":
		return i.LastName
	case i.LastName == "":
		return i.FirstName
	}
	return i.FirstName + " " + i.LastName
}
