package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lowilleq/exterra/internal/models"
	"github.com/lowilleq/exterra/internal/repository"
)

var (
	// ErrNeedsRegistration means the identity cache does not hold a complete
	// identity and the visitor has to submit the registration form.
	ErrNeedsRegistration = errors.New("identity: registration required")
	// ErrStoreUnavailable wraps any store failure other than a uniqueness conflict.
	ErrStoreUnavailable = errors.New("identity: store unavailable")
)

// ValidationError lists the registration fields that were empty after trimming.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "identity: missing required fields: " + strings.Join(e.Fields, ", ")
}

// CustomerStore is the slice of the persistent store the resolver needs.
type CustomerStore interface {
	Insert(ctx context.Context, customer *models.Customer) (repository.InsertResult, error)
	TouchLastSeen(ctx context.Context, email string, at time.Time) error
}

// CustomerNotifier hears about customers created by a registration.
type CustomerNotifier interface {
	NotifyNewCustomer(customer models.Customer) error
}

// IdentityResolver decides whether a visitor is known and registers new ones.
type IdentityResolver struct {
	customers CustomerStore
	ttl       time.Duration
	now       func() time.Time
	notifier  CustomerNotifier
}

// ResolverOption customizes IdentityResolver.
type ResolverOption func(*IdentityResolver)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *IdentityResolver) { r.now = now }
}

// WithCustomerNotifier registers a sink for newly created customers.
func WithCustomerNotifier(n CustomerNotifier) ResolverOption {
	return func(r *IdentityResolver) { r.notifier = n }
}

// NewIdentityResolver constructs an IdentityResolver. ttl is the expiry
// applied to every identity cache entry it writes.
func NewIdentityResolver(customers CustomerStore, ttl time.Duration, opts ...ResolverOption) *IdentityResolver {
	r := &IdentityResolver{customers: customers, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve reads the identity cache only. A complete, unexpired identity is
// returned as-is; anything less yields ErrNeedsRegistration.
func (r *IdentityResolver) Resolve(ctx context.Context, cache IdentityCache) (models.Identity, error) {
	values := make(map[string]string, len(IdentityKeys))
	for _, key := range IdentityKeys {
		value, ok, err := cache.Get(ctx, key)
		if err != nil {
			log.Printf("[Identity] cache read %s: %v", key, err)
			return models.Identity{}, ErrNeedsRegistration
		}
		if !ok || strings.TrimSpace(value) == "" {
			return models.Identity{}, ErrNeedsRegistration
		}
		values[key] = value
	}

	return models.Identity{
		Email:     values[IdentityKeyEmail],
		FirstName: values[IdentityKeyFirstName],
		LastName:  values[IdentityKeyLastName],
	}, nil
}

// Register creates the customer or, when the email is already on record,
// only bumps its last-seen timestamp. Stored names are never overwritten;
// the submitted names are still returned and cached for this device.
// The identity cache is written only after the store accepted the visit.
func (r *IdentityResolver) Register(ctx context.Context, cache IdentityCache, email, firstName, lastName string) (models.Identity, error) {
	identity := models.Identity{
		Email:     strings.TrimSpace(email),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}.Clone()
	if err := validateIdentity(identity); err != nil {
		return models.Identity{}, err
	}

	now := r.now().UTC()
	customer := &models.Customer{
		Email:      identity.Email,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		LastSeenAt: now,
	}

	result, err := r.customers.Insert(ctx, customer)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	switch result.Outcome {
	case repository.OutcomeCreated:
		r.notify(*customer)
	case repository.OutcomeConflict:
		if err := r.customers.TouchLastSeen(ctx, identity.Email, now); err != nil {
			return models.Identity{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	default:
		return models.Identity{}, fmt.Errorf("%w: unexpected insert outcome %v", ErrStoreUnavailable, result.Outcome)
	}

	if err := r.writeCache(ctx, cache, identity); err != nil {
		// The customer row is already persisted; the next visit re-prompts
		// and lands on the conflict path.
		log.Printf("[Identity] cache write for %s: %v", identity.Email, err)
	}

	return identity, nil
}

// Forget clears the identity cache of a device.
func (r *IdentityResolver) Forget(ctx context.Context, cache IdentityCache) error {
	var errs []error
	for _, key := range IdentityKeys {
		if err := cache.Remove(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *IdentityResolver) writeCache(ctx context.Context, cache IdentityCache, identity models.Identity) error {
	entries := []struct{ key, value string }{
		{IdentityKeyEmail, identity.Email},
		{IdentityKeyFirstName, identity.FirstName},
		{IdentityKeyLastName, identity.LastName},
	}
	for _, e := range entries {
		if err := cache.Set(ctx, e.key, e.value, r.ttl); err != nil {
			return err
		}
	}
	return nil
}

func (r *IdentityResolver) notify(customer models.Customer) {
	if r.notifier == nil {
		return
	}
	go func() {
		if err := r.notifier.NotifyNewCustomer(customer); err != nil {
			log.Printf("[Identity] new customer notification for %s: %v", customer.Email, err)
		}
	}()
}

func validateIdentity(identity models.Identity) error {
	var missing []string
	if identity.Email == "" {
		missing = append(missing, "email")
	}
	if identity.FirstName == "" {
		missing = append(missing, "first_name")
	}
	if identity.LastName == "" {
		missing = append(missing, "last_name")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
