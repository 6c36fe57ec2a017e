package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lowilleq/exterra/internal/i18n"
	"github.com/lowilleq/exterra/internal/models"
)

// ScanStore appends scan rows.
type ScanStore interface {
	Insert(ctx context.Context, scan *models.Scan) error
}

// ScanRecorder writes one Scan per product page view. Failures are logged
// and never reach the visitor.
type ScanRecorder struct {
	scans     ScanStore
	publisher ScanPublisher
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewScanRecorder constructs a ScanRecorder. publisher may be nil; timeout
// bounds detached writes.
func NewScanRecorder(scans ScanStore, publisher ScanPublisher, timeout time.Duration) *ScanRecorder {
	if publisher == nil {
		publisher = NoopScanPublisher{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ScanRecorder{scans: scans, publisher: publisher, timeout: timeout}
}

// Record inserts a scan synchronously. An empty email or an unsupported
// locale is stored as NULL.
func (r *ScanRecorder) Record(ctx context.Context, identity models.Identity, productID uuid.UUID, locale string) (*models.Scan, error) {
	scan := &models.Scan{ProductID: productID}
	if identity.Email != "" {
		email := identity.Email
		scan.CustomerEmail = &email
	}
	if code, ok := i18n.Normalize(locale); ok {
		scan.Locale = &code
	}

	if err := r.scans.Insert(ctx, scan); err != nil {
		return nil, fmt.Errorf("record scan: %w", err)
	}

	if err := r.publisher.PublishScan(ctx, ScanEventFromModel(scan)); err != nil {
		log.Printf("[Scan] publish %s: %v", scan.ID, err)
	}
	return scan, nil
}

// RecordDetached records the scan in the background so the page render is
// not held up. It uses its own deadline, independent of the request.
func (r *ScanRecorder) RecordDetached(identity models.Identity, productID uuid.UUID, locale string) {
	identity = identity.Clone()
	locale = strings.Clone(locale)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if _, err := r.Record(ctx, identity, productID, locale); err != nil {
			log.Printf("[Scan] product %s: %v", productID, err)
		}
	}()
}

// Wait blocks until every detached write has finished.
func (r *ScanRecorder) Wait() {
	r.wg.Wait()
}
