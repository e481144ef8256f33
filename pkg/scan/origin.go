package scan

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/user/certscan/pkg/ports"
)

// CheckOrigin reports whether capture may be requested from origin. Only https
// origins are trusted, with loopback hosts allowed for local development.
func CheckOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: invalid origin %q", ports.ErrInsecureContext, origin)
	}
	if strings.EqualFold(u.Scheme, "https") {
		return nil
	}
	if isLoopback(u.Hostname()) {
		return nil
	}
	return fmt.Errorf("%w: %s is not served over https", ports.ErrInsecureContext, u.Host)
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
