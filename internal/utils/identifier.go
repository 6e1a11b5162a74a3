package utils

import (
	"errors"
	"regexp"

	"github.com/VKx64/Farely-Backend/internal/models"
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,3}$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9(][0-9\s\-()]{4,18}[0-9]$`)
)

var ErrUnknownIdentifier = errors.New("identifier must be a valid email address or phone number")

// ClassifyIdentifier decides whether a registration identifier is an email
// address or a phone number.
func ClassifyIdentifier(v string) (models.ContactMethod, error) {
	switch {
	case emailRe.MatchString(v):
		return models.ContactEmail, nil
	case phoneRe.MatchString(v):
		return models.ContactPhone, nil
	default:
		return "", ErrUnknownIdentifier
	}
}
