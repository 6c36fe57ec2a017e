package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/lowilleq/exterra/internal/config"
	"github.com/lowilleq/exterra/internal/i18n"
	"github.com/lowilleq/exterra/internal/models"
	"github.com/lowilleq/exterra/internal/repository"
	"github.com/lowilleq/exterra/internal/services"
	"github.com/lowilleq/exterra/internal/utils"
)

// CatalogHandler manages products for the admin dashboard.
type CatalogHandler struct {
	products *repository.ProductRepository
	cache    services.ProductCache
	storage  services.ObjectStorage
	cfg      *config.Config
	now      func() time.Time
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(products *repository.ProductRepository, cache services.ProductCache, storage services.ObjectStorage, cfg *config.Config) *CatalogHandler {
	if cache == nil {
		cache = services.NoopProductCache{}
	}
	return &CatalogHandler{products: products, cache: cache, storage: storage, cfg: cfg, now: time.Now}
}

type productRequest struct {
	Name        string   `json:"name" form:"name"`
	Price       *float64 `json:"price" form:"price"`
	Description string   `json:"description" form:"description"`
	ImageURL    string   `json:"image_url" form:"image_url"`
	Status      string   `json:"status" form:"status"`
	RemoveImage bool     `json:"remove_image" form:"remove_image"`
}

// ListProducts returns paginated products with optional search and status filters.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	filter := repository.ProductFilter{Search: c.Query("search")}
	if v := c.Query("status"); v != "" {
		status, ok := models.ParseProductStatus(v)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		filter.Status = status
	}

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	products, total, err := h.products.List(ctx, filter, pg.Repo())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       products,
		"pagination": pg.Meta(total),
	})
}

// GetProduct loads a single product.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	product, err := loadProduct(ctx, h.products, h.cache, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

// CreateProduct handles product creation from JSON or multipart form data.
// A multipart "image" file is uploaded to object storage.
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Price == nil {
		return fiber.NewError(fiber.StatusBadRequest, "price is required")
	}

	product := &models.Product{}
	if err := applyProductRequest(product, req); err != nil {
		return err
	}

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	url, err := h.uploadFormImage(c, "image")
	if err != nil {
		return err
	}
	if url != "" {
		product.ImageURL = &url
	}

	if err := h.products.Create(ctx, product); err != nil {
		if product.ImageURL != nil {
			h.removeImage(ctx, *product.ImageURL)
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct overwrites the editable fields of a product.
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	product, err := h.products.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		return err
	}

	previousImage := product.ImageURL
	if req.Price == nil {
		req.Price = &product.Price
	}
	if req.ImageURL == "" && !req.RemoveImage && product.ImageURL != nil {
		req.ImageURL = *product.ImageURL
	}
	if err := applyProductRequest(product, req); err != nil {
		return err
	}

	url, err := h.uploadFormImage(c, "image")
	if err != nil {
		return err
	}
	if url != "" {
		product.ImageURL = &url
	}

	if err := h.products.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}
	h.cache.Invalidate(ctx, id)

	if previousImage != nil && (product.ImageURL == nil || *product.ImageURL != *previousImage) {
		h.removeImage(ctx, *previousImage)
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a product. Scans that reference it are kept and
// render as an unknown product afterwards.
func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	product, err := h.products.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		return err
	}

	if err := h.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}
	h.cache.Invalidate(ctx, id)

	if product.ImageURL != nil {
		h.removeImage(ctx, *product.ImageURL)
	}

	return c.JSON(fiber.Map{"success": true})
}

// UploadImage replaces the image of an existing product.
func (h *CatalogHandler) UploadImage(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	product, err := h.products.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		return err
	}

	url, err := h.uploadFormImage(c, "image")
	if err != nil {
		return err
	}
	if url == "" {
		return fiber.NewError(fiber.StatusBadRequest, "image file is required")
	}

	previous := product.ImageURL
	product.ImageURL = &url
	if err := h.products.Update(ctx, product); err != nil {
		return err
	}
	h.cache.Invalidate(ctx, id)
	if previous != nil {
		h.removeImage(ctx, *previous)
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// ProductQR renders a PNG QR code pointing at the public product page.
func (h *CatalogHandler) ProductQR(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	if _, err := loadProduct(ctx, h.products, h.cache, id); err != nil {
		return err
	}

	locale, ok := i18n.Normalize(c.Query("locale", h.cfg.DefaultLocale))
	if !ok {
		locale = i18n.Default
	}
	size := c.QueryInt("size", 256)
	if size < 64 || size > 1024 {
		return fiber.NewError(fiber.StatusBadRequest, "size must be between 64 and 1024")
	}

	target := fmt.Sprintf("%s/%s/product/%s", h.cfg.PublicBaseURL, locale, id)
	png, err := qrcode.Encode(target, qrcode.Medium, size)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate QR code")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="product-%s.png"`, id))
	return c.Send(png)
}

type importRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportProducts bulk-creates products from a CSV with the header
// name,price,description,status,image_url. Invalid rows are skipped and
// reported.
func (h *CatalogHandler) ImportProducts(c *fiber.Ctx) error {
	raw, err := csvPayload(c)
	if err != nil {
		return err
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to read CSV")
	}
	if len(records) < 2 {
		return fiber.NewError(fiber.StatusBadRequest, "CSV is empty or has only headers")
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"name", "price"} {
		if _, ok := columns[required]; !ok {
			return fiber.NewError(fiber.StatusBadRequest, "CSV header must include "+required)
		}
	}
	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	ctx, cancel := storeContext(c, h.cfg.StoreTimeout)
	defer cancel()

	var created []models.Product
	skipped := []importRowError{}
	for i, row := range records[1:] {
		line := i + 2
		price, err := strconv.ParseFloat(field(row, "price"), 64)
		if err != nil {
			skipped = append(skipped, importRowError{Row: line, Error: "invalid price"})
			continue
		}

		product := &models.Product{}
		req := productRequest{
			Name:        field(row, "name"),
			Price:       &price,
			Description: field(row, "description"),
			Status:      field(row, "status"),
			ImageURL:    field(row, "image_url"),
		}
		if err := applyProductRequest(product, req); err != nil {
			skipped = append(skipped, importRowError{Row: line, Error: err.Error()})
			continue
		}

		if err := h.products.Create(ctx, product); err != nil {
			log.Printf("[Catalog] import row %d: %v", line, err)
			skipped = append(skipped, importRowError{Row: line, Error: "failed to store product"})
			continue
		}
		created = append(created, *product)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"created": created,
			"skipped": skipped,
		},
	})
}

func csvPayload(c *fiber.Ctx) ([]byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		return readFormFile(fh)
	}
	if body := c.Body(); len(body) > 0 {
		return append([]byte(nil), body...), nil
	}
	return nil, fiber.NewError(fiber.StatusBadRequest, "CSV file is required")
}

// applyProductRequest validates req and copies it onto product.
func applyProductRequest(product *models.Product, req productRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if req.Price == nil || *req.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must be zero or greater")
	}
	status, ok := models.ParseProductStatus(req.Status)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "invalid status")
	}

	product.Name = name
	product.Price = *req.Price
	product.Status = status
	product.Description = optional(req.Description)
	product.ImageURL = optional(req.ImageURL)
	if req.RemoveImage {
		product.ImageURL = nil
	}
	return nil
}

// uploadFormImage stores the multipart file in field, if any, and returns
// its public URL.
func (h *CatalogHandler) uploadFormImage(c *fiber.Ctx, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}

	if h.cfg.MaxImageBytes > 0 && fh.Size > h.cfg.MaxImageBytes {
		return "", fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("image must be at most %d MB", h.cfg.MaxImageBytes>>20))
	}

	data, err := readFormFile(fh)
	if err != nil {
		return "", err
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fiber.NewError(fiber.StatusUnsupportedMediaType, "file must be an image")
	}

	url, err := h.storage.Upload(c.UserContext(), services.ProductImagePath(fh.Filename, h.now()), data, contentType)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}

type objectLocator interface {
	ObjectPathFromURL(url string) (string, bool)
}

func (h *CatalogHandler) removeImage(ctx context.Context, url string) {
	locator, ok := h.storage.(objectLocator)
	if !ok {
		return
	}
	objectPath, ok := locator.ObjectPathFromURL(url)
	if !ok {
		return
	}
	if err := h.storage.Delete(ctx, objectPath); err != nil {
		log.Printf("[Catalog] remove image %s: %v", objectPath, err)
	}
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "failed to read upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "failed to read upload")
	}
	return data, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
