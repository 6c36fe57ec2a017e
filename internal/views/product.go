package views

import (
	"github.com/lowilleq/exterra/internal/i18n"
	"github.com/lowilleq/exterra/internal/models"
)

// ProductPage is the product detail payload. Price and status are only
// filled in for identified visitors.
type ProductPage struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	ImageURL    *string           `json:"image_url,omitempty"`
	Price       *string           `json:"price,omitempty"`
	Status      *string           `json:"status,omitempty"`
	Locale      string            `json:"locale"`
	ViewingAs   *Viewer           `json:"viewing_as,omitempty"`
	Form        *RegistrationForm `json:"registration_form,omitempty"`
	Labels      map[string]string `json:"labels"`
}

// Viewer names the identified visitor.
type Viewer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// RegistrationForm describes the form shown to unidentified visitors.
type RegistrationForm struct {
	Action string   `json:"action"`
	Fields []string `json:"fields"`
	Error  string   `json:"error,omitempty"`
}

// RegistrationFields are the form fields, all required.
var RegistrationFields = []string{"email", "first_name", "last_name"}

// ProductTeaser is shown before the visitor has registered.
func ProductTeaser(locale string, product *models.Product, action string) ProductPage {
	page := baseProductPage(locale, product)
	page.Form = &RegistrationForm{Action: action, Fields: RegistrationFields}
	return page
}

// ProductDetail is shown to an identified visitor.
func ProductDetail(locale string, product *models.Product, identity models.Identity) ProductPage {
	page := baseProductPage(locale, product)
	price := i18n.FormatPrice(locale, product.Price)
	status := i18n.T(locale, "product.status."+string(product.Status))
	page.Price = &price
	page.Status = &status
	page.ViewingAs = &Viewer{Email: identity.Email, Name: identity.DisplayName()}
	return page
}

func baseProductPage(locale string, product *models.Product) ProductPage {
	return ProductPage{
		ID:          product.ID.String(),
		Name:        product.Name,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Locale:      locale,
		Labels:      i18n.Section(locale, "product"),
	}
}
