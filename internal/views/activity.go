// Package views shapes stored rows into the payloads the admin and product
// pages render. Nothing here touches the store.
package views

import (
	"strings"

	"github.com/google/uuid"

	"github.com/lowilleq/exterra/internal/i18n"
	"github.com/lowilleq/exterra/internal/models"
)

// UnknownProduct is shown for scans whose product has been deleted.
const UnknownProduct = "Unknown Product"

const placeholder = "-"

// ScanRow is one line of the recent scans table.
type ScanRow struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ScannedAt   string `json:"scanned_at"`
	Locale      string `json:"locale"`
}

// CustomerScan is one entry of a customer's scan history.
type CustomerScan struct {
	ID          string `json:"id"`
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
	ScannedAt   string `json:"scanned_at"`
	Locale      string `json:"locale"`
}

// CustomerRow is a customer with its expanded scan history.
type CustomerRow struct {
	Email      string         `json:"email"`
	Name       string         `json:"name"`
	CreatedAt  string         `json:"created_at"`
	LastSeen   string         `json:"last_seen"`
	TotalScans int            `json:"total_scans"`
	Scans      []CustomerScan `json:"scans"`
}

// ScanRows formats scans for locale. products holds the products that still
// exist; any other product id renders as UnknownProduct.
func ScanRows(locale string, scans []models.Scan, products map[uuid.UUID]models.Product) []ScanRow {
	rows := make([]ScanRow, 0, len(scans))
	for _, scan := range scans {
		rows = append(rows, ScanRow{
			ID:          scan.ID.String(),
			Email:       deref(scan.CustomerEmail),
			ProductID:   scan.ProductID.String(),
			ProductName: productName(products, scan.ProductID),
			ScannedAt:   i18n.FormatDateTime(locale, scan.ScannedAt),
			Locale:      localeLabel(scan.Locale),
		})
	}
	return rows
}

// CustomerRows groups scans under their customers, keeping the scan order
// it was given.
func CustomerRows(locale string, customers []models.Customer, scans []models.Scan, products map[uuid.UUID]models.Product) []CustomerRow {
	byEmail := make(map[string][]CustomerScan, len(customers))
	for _, scan := range scans {
		if scan.CustomerEmail == nil {
			continue
		}
		entry := CustomerScan{
			ID:          scan.ID.String(),
			ProductName: productName(products, scan.ProductID),
			Price:       placeholder,
			ScannedAt:   i18n.FormatDateTime(locale, scan.ScannedAt),
			Locale:      localeLabel(scan.Locale),
		}
		if product, ok := products[scan.ProductID]; ok {
			entry.Price = i18n.FormatPrice(locale, product.Price)
		}
		byEmail[*scan.CustomerEmail] = append(byEmail[*scan.CustomerEmail], entry)
	}

	rows := make([]CustomerRow, 0, len(customers))
	for _, customer := range customers {
		history := byEmail[customer.Email]
		if history == nil {
			history = []CustomerScan{}
		}
		rows = append(rows, CustomerRow{
			Email:      customer.Email,
			Name:       strings.TrimSpace(customer.FirstName + " " + customer.LastName),
			CreatedAt:  i18n.FormatDate(locale, customer.CreatedAt),
			LastSeen:   i18n.FormatDate(locale, customer.LastSeenAt),
			TotalScans: len(history),
			Scans:      history,
		})
	}
	return rows
}

// ProductIDs collects the distinct product ids referenced by scans.
func ProductIDs(scans []models.Scan) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(scans))
	ids := make([]uuid.UUID, 0, len(scans))
	for _, scan := range scans {
		if _, ok := seen[scan.ProductID]; ok {
			continue
		}
		seen[scan.ProductID] = struct{}{}
		ids = append(ids, scan.ProductID)
	}
	return ids
}

func productName(products map[uuid.UUID]models.Product, id uuid.UUID) string {
	if product, ok := products[id]; ok && product.Name != "" {
		return product.Name
	}
	return UnknownProduct
}

func localeLabel(locale *string) string {
	if locale == nil || *locale == "" {
		return placeholder
	}
	return strings.ToUpper(*locale)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
