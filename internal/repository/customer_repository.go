package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lowilleq/exterra/internal/models"
)

// InsertOutcome tags the result of an optimistic insert.
type InsertOutcome int

const (
	// OutcomeCreated means the row was written and is canonical.
	OutcomeCreated InsertOutcome = iota + 1
	// OutcomeConflict means a row with the same key already existed.
	OutcomeConflict
)

func (o InsertOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeConflict:
		return "conflict"
	}
	return "unknown"
}

// InsertResult is Created(row) or Conflict. Any other failure travels in
// the accompanying error.
type InsertResult struct {
	Outcome  InsertOutcome
	Customer *models.Customer
}

// CustomerRepository persists customers keyed by email.
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository constructs CustomerRepository.
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Insert attempts to create the customer. A uniqueness violation on the
// email column is reported as OutcomeConflict with a nil error.
func (r *CustomerRepository) Insert(ctx context.Context, customer *models.Customer) (InsertResult, error) {
	err := classify(r.db.WithContext(ctx).Create(customer).Error)
	switch err {
	case nil:
		return InsertResult{Outcome: OutcomeCreated, Customer: customer}, nil
	case ErrConflict:
		return InsertResult{Outcome: OutcomeConflict}, nil
	}
	return InsertResult{}, fmt.Errorf("insert customer: %w", err)
}

// TouchLastSeen sets last_seen_at for an existing customer and nothing else.
func (r *CustomerRepository) TouchLastSeen(ctx context.Context, email string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("email = ?", email).
		Update("last_seen_at", at)
	if res.Error != nil {
		return fmt.Errorf("touch customer: %w", classify(res.Error))
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads a customer by email.
func (r *CustomerRepository) Get(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "email = ?", email).Error; err != nil {
		return nil, classify(err)
	}
	return &customer, nil
}

// List returns customers ordered by most recent activity with the total
// count of rows matching search.
func (r *CustomerRepository) List(ctx context.Context, search string, page Page) ([]models.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var customers []models.Customer
	if err := page.apply(query).Order("last_seen_at desc").Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

// Count returns the number of customers.
func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Count(&total).Error
	return total, err
}
