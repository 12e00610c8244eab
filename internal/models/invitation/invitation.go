package invitation

import "time"

type Theme string

const (
	ThemeSimple      Theme = "simple"
	ThemeTraditional Theme = "traditional"
	ThemeModern      Theme = "modern"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeSimple, ThemeTraditional, ThemeModern:
		return true
	}
	return false
}

type Invitation struct {
	ID           string    `json:"id"`
	UUID         string    `json:"uuid"`
	UserID       string    `json:"userId"`
	GroomName    string    `json:"groomName"`
	BrideName    string    `json:"brideName"`
	WeddingDate  string    `json:"weddingDate"`
	WeddingTime  string    `json:"weddingTime"`
	VenueName    string    `json:"venueName"`
	VenueAddress string    `json:"venueAddress"`
	VenueMapLink string    `json:"venueMapLink,omitempty"`
	ContactInfo  string    `json:"contactInfo,omitempty"`
	Message      string    `json:"message"`
	Photos       []string  `json:"photos"`
	Theme        Theme     `json:"theme"`
	IsActive     bool      `json:"isActive"`
	ViewCount    int64     `json:"viewCount"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Viewable reports whether the public share page may show the invitation at t.
func (i *Invitation) Viewable(t time.Time) bool {
	return i.IsActive && t.Before(i.ExpiresAt)
}

type CreateRequest struct {
	GroomName    string   `json:"groomName"`
	BrideName    string   `json:"brideName"`
	WeddingDate  string   `json:"weddingDate"`
	WeddingTime  string   `json:"weddingTime"`
	VenueName    string   `json:"venueName"`
	VenueAddress string   `json:"venueAddress"`
	VenueMapLink string   `json:"venueMapLink,omitempty"`
	ContactInfo  string   `json:"contactInfo,omitempty"`
	Message      string   `json:"message"`
	Photos       []string `json:"photos,omitempty"`
	Theme        Theme    `json:"theme"`
}

type CreateResponse struct {
	Invitation *Invitation `json:"invitation"`
	ShareURL   string      `json:"shareUrl"`
	QRCode     string      `json:"qrCode,omitempty"`
}

type DeviceStat struct {
	DeviceType string `json:"deviceType"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
	Views      uint64 `json:"views"`
}

type Stats struct {
	UUID      string       `json:"uuid"`
	ViewCount int64        `json:"viewCount"`
	Devices   []DeviceStat `json:"devices,omitempty"`
}
