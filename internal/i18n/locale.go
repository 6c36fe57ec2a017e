// Package i18n negotiates the visitor locale and formats prices, dates and
// messages for it.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Default is used when nothing in the request matches a supported locale.
const Default = "nl"

// Supported lists the locale codes routes accept, default first.
var Supported = []string{"nl", "fr", "en"}

var (
	supportedTags = []language.Tag{language.Dutch, language.French, language.English}
	matcher       = language.NewMatcher(supportedTags)
)

// IsSupported reports whether code is one of the supported locale codes.
func IsSupported(code string) bool {
	for _, l := range Supported {
		if l == code {
			return true
		}
	}
	return false
}

// Normalize lowercases code and returns it when supported.
func Normalize(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	return code, IsSupported(code)
}

// Negotiate picks the best supported locale for an Accept-Language header.
func Negotiate(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(Supported) {
		return Default
	}
	return Supported[index]
}

func tagFor(code string) language.Tag {
	for i, l := range Supported {
		if l == code {
			return supportedTags[i]
		}
	}
	return supportedTags[0]
}
