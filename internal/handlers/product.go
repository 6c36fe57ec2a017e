package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/lowilleq/exterra/internal/config"
	"github.com/lowilleq/exterra/internal/i18n"
	"github.com/lowilleq/exterra/internal/middleware"
	"github.com/lowilleq/exterra/internal/models"
	"github.com/lowilleq/exterra/internal/repository"
	"github.com/lowilleq/exterra/internal/services"
	"github.com/lowilleq/exterra/internal/views"
)

// ProductHandler serves the public product page reached from a QR code.
type ProductHandler struct {
	products *repository.ProductRepository
	cache    services.ProductCache
	resolver *services.IdentityResolver
	recorder *services.ScanRecorder
	cfg      *config.Config
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(products *repository.ProductRepository, cache services.ProductCache, resolver *services.IdentityResolver, recorder *services.ScanRecorder, cfg *config.Config) *ProductHandler {
	if cache == nil {
		cache = services.NoopProductCache{}
	}
	return &ProductHandler{products: products, cache: cache, resolver: resolver, recorder: recorder, cfg: cfg}
}

type registerRequest struct {
	Email     string `json:"email" form:"email"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
}

// Show renders the product. Identified visitors see price and status and
// get a scan recorded; everyone else gets the registration form.
func (h *ProductHandler) Show(c *fiber.Ctx) error {
	locale := middleware.GetLocale(c)
	product, err := h.load(c)
	if err != nil {
		return err
	}

	identity, err := h.resolver.Resolve(c.UserContext(), middleware.GetIdentityCache(c))
	if errors.Is(err, services.ErrNeedsRegistration) {
		return c.JSON(fiber.Map{
			"success": true,
			"data":    views.ProductTeaser(locale, product, registerAction(locale, product.ID)),
		})
	}
	if err != nil {
		return err
	}

	h.recorder.RecordDetached(identity, product.ID, locale)
	return c.JSON(fiber.Map{"success": true, "data": views.ProductDetail(locale, product, identity)})
}

// Register resolves the submitted identity, records the visit and renders
// the full product.
func (h *ProductHandler) Register(c *fiber.Ctx) error {
	locale := middleware.GetLocale(c)
	product, err := h.load(c)
	if err != nil {
		return err
	}

	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	identity, err := h.resolver.Register(ctx, middleware.GetIdentityCache(c), req.Email, req.FirstName, req.LastName)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "missing required fields",
				"fields":  verr.Fields,
			})
		}
		return fiber.NewError(fiber.StatusServiceUnavailable, i18n.T(locale, "product.registrationFailed"))
	}

	h.recorder.RecordDetached(identity, product.ID, locale)
	return c.JSON(fiber.Map{"success": true, "data": views.ProductDetail(locale, product, identity)})
}

// Forget clears the device's identity and renders the teaser again.
func (h *ProductHandler) Forget(c *fiber.Ctx) error {
	locale := middleware.GetLocale(c)
	product, err := h.load(c)
	if err != nil {
		return err
	}

	if err := h.resolver.Forget(c.UserContext(), middleware.GetIdentityCache(c)); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    views.ProductTeaser(locale, product, registerAction(locale, product.ID)),
	})
}

func (h *ProductHandler) load(c *fiber.Ctx) (*models.Product, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "product not found")
	}

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	return loadProduct(ctx, h.products, h.cache, id)
}

func loadProduct(ctx context.Context, products *repository.ProductRepository, cache services.ProductCache, id uuid.UUID) (*models.Product, error) {
	if product, ok := cache.Get(ctx, id); ok {
		return product, nil
	}

	product, err := products.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", id, err)
	}

	cache.Set(ctx, product)
	return product, nil
}

func registerAction(locale string, id uuid.UUID) string {
	return "/" + locale + "/product/" + id.String() + "/register"
}
