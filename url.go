package ixws

import (
	"fmt"
	"net/url"
)

// parsedURL is the subset of a dial/listen target this package cares
// about: enough to pick a transport (plain vs TLS), a dial address and
// the request-target/Host header for the HTTP/1.1 upgrade request.
type parsedURL struct {
	tls    bool
	host   string // host:port, suitable for net.Dial
	target string // path?query, suitable for the request line
}

// parseURL accepts ws://, wss://, http:// and https:// URLs, normalizing
// the latter two the same way a browser does when asked to open a
// WebSocket to an http(s) origin.
func parseURL(rawurl string) (parsedURL, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return parsedURL{}, fmt.Errorf("failed to parse url: %w", err)
	}

	var tls bool
	switch u.Scheme {
	case "ws", "http":
		tls = false
	case "wss", "https":
		tls = true
	default:
		return parsedURL{}, fmt.Errorf("unsupported scheme %q, expected ws, wss, http or https", u.Scheme)
	}

	host := u.Host
	if u.Port() == "" {
		if tls {
			host += ":443"
		} else {
			host += ":80"
		}
	}

	target := u.Path
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}

	return parsedURL{tls: tls, host: host, target: target}, nil
}
