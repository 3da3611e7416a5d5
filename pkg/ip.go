package pkg

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ReadUserIP gets the real client IP, checking the reverse proxy
// headers before falling back to the connection remote address.
func ReadUserIP(r *http.Request) (string, error) {
	ipAddr := r.Header.Get("X-Real-Ip")
	if ipAddr == "" {
		ipAddr = r.Header.Get("X-Forwarded-For")
	}
	if ipAddr == "" {
		ipAddr = r.RemoteAddr
	}

	if ipAddr == "" {
		return "", fmt.Errorf("failed to get user IP address")
	}

	// X-Forwarded-For can hold a comma separated chain of proxies
	if commaIndex := strings.Index(ipAddr, ","); commaIndex > 0 {
		ipAddr = ipAddr[:commaIndex]
	}
	ipAddr = strings.TrimSpace(ipAddr)

	if strings.HasPrefix(ipAddr, "localhost") {
		return "localhost", nil
	}

	if host, _, err := net.SplitHostPort(ipAddr); err == nil {
		return host, nil
	}

	return ipAddr, nil
}
