package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ClientIPResolver finds the originating client address of a request. Forwarding
// headers are read only when the TCP peer is one of the trusted proxies; otherwise
// the peer address is the client. A nil resolver trusts no proxy.
type ClientIPResolver struct {
	trusted []*net.IPNet
}

// NewClientIPResolver accepts IPs and CIDRs. A bare IP trusts that single address.
func NewClientIPResolver(proxies []string) (*ClientIPResolver, error) {
	r := &ClientIPResolver{}
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", p)
			}
			bits := 8 * net.IPv6len
			if ip4 := ip.To4(); ip4 != nil {
				ip, bits = ip4, 8*net.IPv4len
			}
			r.trusted = append(r.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		r.trusted = append(r.trusted, network)
	}
	return r, nil
}

func (c *ClientIPResolver) isTrusted(addr string) bool {
	if c == nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, network := range c.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP walks X-Forwarded-For from the right and returns the first hop that is not
// a trusted proxy. X-Real-IP is used when a trusted peer sent no X-Forwarded-For.
func (c *ClientIPResolver) ClientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !c.isTrusted(peer) {
		return peer
	}

	if forwarded := r.Header.Values("X-Forwarded-For"); len(forwarded) > 0 {
		hops := strings.Split(strings.Join(forwarded, ","), ",")
		leftmost := ""
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !c.isTrusted(hop) {
				return hop
			}
			leftmost = hop
		}
		if leftmost != "" {
			return leftmost
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return peer
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "::1" {
		return "127.0.0.1"
	}
	return host
}
