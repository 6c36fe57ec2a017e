package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lowilleq/exterra/internal/models"
)

// ScanRepository appends and reads scan rows. There is no update or delete path.
type ScanRepository struct {
	db *gorm.DB
}

// NewScanRepository constructs ScanRepository.
func NewScanRepository(db *gorm.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Insert writes exactly one scan row.
func (r *ScanRepository) Insert(ctx context.Context, scan *models.Scan) error {
	if err := r.db.WithContext(ctx).Create(scan).Error; err != nil {
		return fmt.Errorf("insert scan: %w", classify(err))
	}
	return nil
}

// Recent returns the newest scans first.
func (r *ScanRepository) Recent(ctx context.Context, page Page) ([]models.Scan, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Scan{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var scans []models.Scan
	if err := page.apply(r.db.WithContext(ctx)).
		Order("scanned_at desc").
		Find(&scans).Error; err != nil {
		return nil, 0, err
	}
	return scans, total, nil
}

// ForCustomers returns all scans of the given customers, newest first.
func (r *ScanRepository) ForCustomers(ctx context.Context, emails []string) ([]models.Scan, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var scans []models.Scan
	err := r.db.WithContext(ctx).
		Where("customer_email IN ?", emails).
		Order("scanned_at desc").
		Find(&scans).Error
	return scans, err
}

// ForProduct returns every scan attributed to productID.
func (r *ScanRepository) ForProduct(ctx context.Context, productID string) ([]models.Scan, error) {
	var scans []models.Scan
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("scanned_at desc").
		Find(&scans).Error
	return scans, err
}

// LocaleCount is one row of CountByLocale.
type LocaleCount struct {
	Locale string `json:"locale"`
	Count  int64  `json:"count"`
}

// CountByLocale groups scans by locale; NULL locales are reported as "".
func (r *ScanRepository) CountByLocale(ctx context.Context) ([]LocaleCount, error) {
	var counts []LocaleCount
	err := r.db.WithContext(ctx).Model(&models.Scan{}).
		Select("COALESCE(locale, '') as locale, count(*) as count").
		Group("COALESCE(locale, '')").
		Order("count desc").
		Scan(&counts).Error
	return counts, err
}

// CountSince returns the number of scans at or after since.
func (r *ScanRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Scan{}).
		Where("scanned_at >= ?", since).
		Count(&total).Error
	return total, err
}
