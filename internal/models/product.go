package models

import "strings"

// ProductStatus is the sale state shown on a product page.
type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "available"
	ProductStatusSold      ProductStatus = "sold"
)

// Valid reports whether s is one of the known statuses.
func (s ProductStatus) Valid() bool {
	return s == ProductStatusAvailable || s == ProductStatusSold
}

// ParseProductStatus normalizes user input, defaulting to available.
func ParseProductStatus(value string) (ProductStatus, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ProductStatusAvailable, true
	}
	status := ProductStatus(value)
	return status, status.Valid()
}

// Product is a physical item reachable through its QR code.
type Product struct {
	BaseModel
	Name        string        `gorm:"not null" json:"name"`
	Price       float64       `gorm:"not null;check:price >= 0" json:"price"`
	Description *string       `gorm:"type:text" json:"description"`
	ImageURL    *string       `gorm:"column:image_url" json:"image_url"`
	Status      ProductStatus `gorm:"type:varchar(16);not null;default:'available'" json:"status"`
}
