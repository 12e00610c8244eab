// Package enrichment derives device and network attributes from the raw client data
// carried by a view event.
package enrichment

import (
	"net"

	"github.com/mssola/user_agent"
)

const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"

	NetworkPublic  = "public"
	NetworkPrivate = "private"
	NetworkUnknown = "unknown"
)

type UAInfo struct {
	Browser        string
	BrowserVersion string
	OS             string
	DeviceType     string
}

func ParseUserAgent(uaString string) *UAInfo {
	if uaString == "" {
		return &UAInfo{DeviceType: DeviceUnknown}
	}

	ua := user_agent.New(uaString)
	browser, version := ua.Browser()

	deviceType := DeviceDesktop
	if ua.Bot() {
		deviceType = DeviceBot
	} else if ua.Mobile() {
		deviceType = DeviceMobile
	}

	return &UAInfo{
		Browser:        browser,
		BrowserVersion: version,
		OS:             ua.OS(),
		DeviceType:     deviceType,
	}
}

// NetworkClass reports whether the viewer address is routable. Loopback and private
// ranges come from local testing or proxies and are tallied separately.
func NetworkClass(ip string) string {
	parsed := net.ParseIP(ip)
	switch {
	case parsed == nil:
		return NetworkUnknown
	case parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast():
		return NetworkPrivate
	default:
		return NetworkPublic
	}
}
