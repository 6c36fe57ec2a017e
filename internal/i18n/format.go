package i18n

import (
	"time"

	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency is the only currency the showcase prices in.
const Currency = "EUR"

// FormatPrice renders amount in euros with the locale's separators and
// symbol placement.
func FormatPrice(locale string, amount float64) string {
	printer := message.NewPrinter(tagFor(locale))
	digits := printer.Sprint(number.Decimal(amount, number.Scale(2)))

	switch locale {
	case "fr":
		return digits + " €"
	case "en":
		return "€" + digits
	default:
		return "€ " + digits
	}
}

var dateLayouts = map[string]string{
	"nl": "02-01-2006 15:04",
	"fr": "02/01/2006 15:04",
	"en": "Jan 2, 2006, 3:04 PM",
}

// FormatDateTime renders t for admin tables and the product page.
func FormatDateTime(locale string, t time.Time) string {
	layout, ok := dateLayouts[locale]
	if !ok {
		layout = dateLayouts[Default]
	}
	return t.Format(layout)
}

// FormatDate renders only the calendar date.
func FormatDate(locale string, t time.Time) string {
	switch locale {
	case "fr":
		return t.Format("02/01/2006")
	case "en":
		return t.Format("Jan 2, 2006")
	}
	return t.Format("02-01-2006")
}
