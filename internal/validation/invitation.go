package validation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Varun5711/easywedding/internal/models/invitation"
)

const (
	MaxPersonNameLength   = 50
	MaxVenueNameLength    = 100
	MaxVenueAddressLength = 200
	MaxContactInfoLength  = 100
	MinMessageLength      = 10
	MaxMessageLength      = 500
	MaxPhotos             = 5
	WeddingDateLayout     = "2006-01-02"
)

var (
	ErrRequired     = errors.New("is required")
	ErrInvalidDate  = errors.New("must be a date in YYYY-MM-DD format")
	ErrInvalidURL   = errors.New("must be an absolute http(s) URL")
	ErrInvalidTheme = errors.New("must be one of simple, traditional, modern")
	ErrTooManyPhoto = fmt.Errorf("at most %d photos are allowed", MaxPhotos)
)

func lengthError(min, max int) error {
	if min > 0 {
		return fmt.Errorf("must be between %d and %d characters", min, max)
	}
	return fmt.Errorf("must be at most %d characters", max)
}

func checkLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if min > 0 && n == 0 {
		return fieldError(field, ErrRequired)
	}
	if n < min || n > max {
		return fieldError(field, lengthError(min, max))
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func ValidateInvitation(req *invitation.CreateRequest) error {
	checks := []struct {
		field    string
		value    string
		min, max int
	}{
		{"groomName", req.GroomName, 1, MaxPersonNameLength},
		{"brideName", req.BrideName, 1, MaxPersonNameLength},
		{"weddingTime", req.WeddingTime, 1, 20},
		{"venueName", req.VenueName, 1, MaxVenueNameLength},
		{"venueAddress", req.VenueAddress, 1, MaxVenueAddressLength},
		{"contactInfo", req.ContactInfo, 0, MaxContactInfoLength},
		{"message", req.Message, MinMessageLength, MaxMessageLength},
	}
	for _, c := range checks {
		if err := checkLength(c.field, c.value, c.min, c.max); err != nil {
			return err
		}
	}

	if strings.TrimSpace(req.WeddingDate) == "" {
		return fieldError("weddingDate", ErrRequired)
	}
	if _, err := time.Parse(WeddingDateLayout, req.WeddingDate); err != nil {
		return fieldError("weddingDate", ErrInvalidDate)
	}

	if req.VenueMapLink != "" && !isHTTPURL(req.VenueMapLink) {
		return fieldError("venueMapLink", ErrInvalidURL)
	}

	if !req.Theme.Valid() {
		return fieldError("theme", ErrInvalidTheme)
	}

	if len(req.Photos) > MaxPhotos {
		return fieldError("photos", ErrTooManyPhoto)
	}
	for _, p := range req.Photos {
		if !isHTTPURL(p) {
			return fieldError("photos", ErrInvalidURL)
		}
	}

	return nil
}
