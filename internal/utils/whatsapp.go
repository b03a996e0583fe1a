package utils

import "strings"

// WhatsAppURL builds a wa.me deep link from a free-form phone number.
// Non-digit characters are stripped; nil is returned when no digits remain.
func WhatsAppURL(countryCode string, phone *string) *string {
	if phone == nil {
		return nil
	}
	var b strings.Builder
	for _, r := range *phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	u := "https://wa.me/" + countryCode + b.String()
	return &u
}
