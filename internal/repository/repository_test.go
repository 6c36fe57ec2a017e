package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowilleq/exterra/internal/database/dbtest"
	"github.com/lowilleq/exterra/internal/models"
)

func strPtr(s string) *string { return &s }

func TestCustomerInsertReportsConflictByKind(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository(dbtest.Open(t))
	now := time.Now().UTC()

	res, err := repo.Insert(ctx, &models.Customer{Email: "a@example.com", FirstName: "Ana", LastName: "Ng", LastSeenAt: now})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	require.NotNil(t, res.Customer)

	res, err = repo.Insert(ctx, &models.Customer{Email: "a@example.com", FirstName: "Other", LastName: "Name", LastSeenAt: now})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConflict, res.Outcome)
	assert.Nil(t, res.Customer)

	stored, err := repo.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana", stored.FirstName)
	assert.Equal(t, "Ng", stored.LastName)
}

func TestCustomerTouchLastSeen(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository(dbtest.Open(t))
	first := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	_, err := repo.Insert(ctx, &models.Customer{Email: "b@example.com", FirstName: "Bo", LastName: "Li", LastSeenAt: first})
	require.NoError(t, err)

	require.NoError(t, repo.TouchLastSeen(ctx, "b@example.com", later))

	stored, err := repo.Get(ctx, "b@example.com")
	require.NoError(t, err)
	assert.True(t, stored.LastSeenAt.Equal(later), "last seen %v", stored.LastSeenAt)

	assert.ErrorIs(t, repo.TouchLastSeen(ctx, "missing@example.com", later), ErrNotFound)
}

func TestCustomerListSearch(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository(dbtest.Open(t))
	now := time.Now().UTC()

	for _, c := range []models.Customer{
		{Email: "ana@example.com", FirstName: "Ana", LastName: "Ng", LastSeenAt: now},
		{Email: "bo@example.com", FirstName: "Bo", LastName: "Li", LastSeenAt: now.Add(time.Minute)},
	} {
		c := c
		_, err := repo.Insert(ctx, &c)
		require.NoError(t, err)
	}

	all, total, err := repo.List(ctx, "", Page{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, all, 2)
	assert.Equal(t, "bo@example.com", all[0].Email)

	found, total, err := repo.List(ctx, "ANA", Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "ana@example.com", found[0].Email)
}

func TestProductDeleteLeavesScans(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	products := NewProductRepository(db)
	scans := NewScanRepository(db)

	product := &models.Product{Name: "Oak chair", Price: 120, Status: models.ProductStatusAvailable}
	require.NoError(t, products.Create(ctx, product))
	require.NoError(t, scans.Insert(ctx, &models.Scan{ProductID: product.ID, CustomerEmail: strPtr("a@example.com"), Locale: strPtr("fr")}))

	require.NoError(t, products.Delete(ctx, product.ID))
	assert.ErrorIs(t, products.Delete(ctx, product.ID), ErrNotFound)

	_, err := products.Get(ctx, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	remaining, err := scans.ForProduct(ctx, product.ID.String())
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	byID, err := products.ByIDs(ctx, []uuid.UUID{product.ID})
	require.NoError(t, err)
	assert.Empty(t, byID)
}

func TestProductUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(dbtest.Open(t))

	product := &models.Product{Name: "Lamp", Price: 40, Description: strPtr("brass"), Status: models.ProductStatusAvailable}
	require.NoError(t, repo.Create(ctx, product))

	edited := &models.Product{Name: "Lamp", Price: 35.5, Status: models.ProductStatusSold}
	edited.ID = product.ID
	require.NoError(t, repo.Update(ctx, edited))

	stored, err := repo.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 35.5, stored.Price)
	assert.Equal(t, models.ProductStatusSold, stored.Status)
	assert.Nil(t, stored.Description)

	missing := &models.Product{Name: "Ghost"}
	missing.ID = uuid.New()
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)
}

func TestScanCountByLocale(t *testing.T) {
	ctx := context.Background()
	repo := NewScanRepository(dbtest.Open(t))
	productID := uuid.New()

	for _, locale := range []*string{strPtr("fr"), strPtr("fr"), strPtr("nl"), nil} {
		require.NoError(t, repo.Insert(ctx, &models.Scan{ProductID: productID, Locale: locale}))
	}

	counts, err := repo.CountByLocale(ctx)
	require.NoError(t, err)
	byLocale := map[string]int64{}
	for _, c := range counts {
		byLocale[c.Locale] = c.Count
	}
	assert.Equal(t, map[string]int64{"fr": 2, "nl": 1, "": 1}, byLocale)

	recent, total, err := repo.Recent(ctx, Page{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, recent, 2)
}
