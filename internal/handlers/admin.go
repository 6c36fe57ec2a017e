package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lowilleq/exterra/internal/config"
	"github.com/lowilleq/exterra/internal/i18n"
	"github.com/lowilleq/exterra/internal/middleware"
	"github.com/lowilleq/exterra/internal/models"
	"github.com/lowilleq/exterra/internal/repository"
	"github.com/lowilleq/exterra/internal/utils"
	"github.com/lowilleq/exterra/internal/views"
)

const (
	dashboardScanLimit = 50
	dashboardListLimit = 100
)

// AdminHandler serves the read-only activity views of the dashboard.
type AdminHandler struct {
	products  *repository.ProductRepository
	customers *repository.CustomerRepository
	scans     *repository.ScanRepository
	cfg       *config.Config
	now       func() time.Time
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(products *repository.ProductRepository, customers *repository.CustomerRepository, scans *repository.ScanRepository, cfg *config.Config) *AdminHandler {
	return &AdminHandler{products: products, customers: customers, scans: scans, cfg: cfg, now: time.Now}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	stats, err := h.stats(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": stats})
}

// ListScans returns recent scans, newest first.
func (h *AdminHandler) ListScans(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	locale := h.queryLocale(c)

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	scans, total, err := h.scans.Recent(ctx, pg.Repo())
	if err != nil {
		return err
	}
	rows, err := h.scanRows(ctx, locale, scans)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       rows,
		"pagination": pg.Meta(total),
	})
}

// ListCustomers returns customers with their scan history.
func (h *AdminHandler) ListCustomers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	locale := h.queryLocale(c)

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	customers, total, err := h.customers.List(ctx, strings.TrimSpace(c.Query("search")), pg.Repo())
	if err != nil {
		return err
	}
	rows, err := h.customerRows(ctx, locale, customers)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       rows,
		"pagination": pg.Meta(total),
	})
}

// GetCustomer returns one customer with their scan history.
func (h *AdminHandler) GetCustomer(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Params("email"))
	locale := h.queryLocale(c)

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	customer, err := h.customers.Get(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "customer not found")
	}
	if err != nil {
		return err
	}

	rows, err := h.customerRows(ctx, locale, []models.Customer{*customer})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": rows[0]})
}

// Dashboard is the payload of the localized admin page: products, the 50
// most recent scans and customers with their history.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	locale := middleware.GetLocale(c)

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	products, _, err := h.products.List(ctx, repository.ProductFilter{}, repository.Page{Limit: dashboardListLimit})
	if err != nil {
		return err
	}

	scans, _, err := h.scans.Recent(ctx, repository.Page{Limit: dashboardScanLimit})
	if err != nil {
		return err
	}
	scanRows, err := h.scanRows(ctx, locale, scans)
	if err != nil {
		return err
	}

	customers, _, err := h.customers.List(ctx, "", repository.Page{Limit: dashboardListLimit})
	if err != nil {
		return err
	}
	customerRows, err := h.customerRows(ctx, locale, customers)
	if err != nil {
		return err
	}

	stats, err := h.stats(ctx)
	if err != nil {
		return err
	}

	type productRow struct {
		models.Product
		DisplayPrice string `json:"display_price"`
		QRCodeURL    string `json:"qr_code_url"`
	}
	productRows := make([]productRow, 0, len(products))
	for _, p := range products {
		productRows = append(productRows, productRow{
			Product:      p,
			DisplayPrice: i18n.FormatPrice(locale, p.Price),
			QRCodeURL:    "/api/admin/products/" + p.ID.String() + "/qr?locale=" + locale,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"locale":    locale,
			"labels":    i18n.Section(locale, "admin"),
			"stats":     stats,
			"products":  productRows,
			"scans":     scanRows,
			"customers": customerRows,
		},
	})
}

func (h *AdminHandler) stats(ctx context.Context) (fiber.Map, error) {
	totalProducts, err := h.products.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalCustomers, err := h.customers.Count(ctx)
	if err != nil {
		return nil, err
	}
	byLocale, err := h.scans.CountByLocale(ctx)
	if err != nil {
		return nil, err
	}

	now := h.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	scansToday, err := h.scans.CountSince(ctx, midnight)
	if err != nil {
		return nil, err
	}

	var totalScans int64
	scansByLocale := make(map[string]int64, len(byLocale))
	for _, lc := range byLocale {
		totalScans += lc.Count
		key := lc.Locale
		if key == "" {
			key = "unknown"
		}
		scansByLocale[key] = lc.Count
	}

	return fiber.Map{
		"total_products":  totalProducts,
		"total_customers": totalCustomers,
		"total_scans":     totalScans,
		"scans_today":     scansToday,
		"scans_by_locale": scansByLocale,
	}, nil
}

func (h *AdminHandler) scanRows(ctx context.Context, locale string, scans []models.Scan) ([]views.ScanRow, error) {
	products, err := h.products.ByIDs(ctx, views.ProductIDs(scans))
	if err != nil {
		return nil, err
	}
	return views.ScanRows(locale, scans, products), nil
}

func (h *AdminHandler) customerRows(ctx context.Context, locale string, customers []models.Customer) ([]views.CustomerRow, error) {
	emails := make([]string, 0, len(customers))
	for _, customer := range customers {
		emails = append(emails, customer.Email)
	}
	scans, err := h.scans.ForCustomers(ctx, emails)
	if err != nil {
		return nil, err
	}
	products, err := h.products.ByIDs(ctx, views.ProductIDs(scans))
	if err != nil {
		return nil, err
	}
	return views.CustomerRows(locale, customers, scans, products), nil
}

func (h *AdminHandler) queryLocale(c *fiber.Ctx) string {
	if locale, ok := i18n.Normalize(c.Query("locale")); ok {
		return locale
	}
	if locale, ok := i18n.Normalize(h.cfg.DefaultLocale); ok {
		return locale
	}
	return i18n.Default
}
