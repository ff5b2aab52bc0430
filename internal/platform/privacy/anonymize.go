// Package privacy keeps card numbers and client addresses out of logs in
// identifying form.
package privacy

import (
	"fmt"
	"net"
	"strings"
)

const (
	binLength   = 6
	last4Length = 4
	maskRune    = '*'
)

// MaskCardNumber keeps the BIN and the last four digits of a card number and
// masks the rest ("4111111111111111" -> "411111******1111"). Numbers too short
// to keep both parts are masked entirely. Empty input yields "".
func MaskCardNumber(number string) string {
	number = strings.TrimSpace(number)
	if number == "" {
		return ""
	}
	if len(number) <= binLength+last4Length {
		return strings.Repeat(string(maskRune), len(number))
	}
	masked := len(number) - binLength - last4Length
	return number[:binLength] + strings.Repeat(string(maskRune), masked) + number[len(number)-last4Length:]
}

// AnonymizeIP zeroes the host part of an address: IPv4 keeps its /24, IPv6
// its /48. A host:port pair is accepted as well, since that is the shape of
// http.Request.RemoteAddr.
//
// Returns "invalid" for unparseable addresses, and "unknown" for empty strings.
func AnonymizeIP(addr string) string {
	if addr == "" || addr == "unknown" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	parsed := net.ParseIP(addr)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}
