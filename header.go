package ixws

import (
	"bufio"
	"fmt"
	"net/http"
	"net/textproto"
	"strings"
)

// readRequestLine reads and splits "METHOD target HTTP/1.1".
func readRequestLine(r *bufio.Reader) (method, target, proto string, err error) {
	line, err := readLine(r)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to read request line: %w", err)
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed request line: %q", line)
	}
	return parts[0], parts[1], strings.TrimSpace(parts[2]), nil
}

// readStatusLine reads and splits "HTTP/1.1 101 Switching Protocols".
func readStatusLine(r *bufio.Reader) (proto string, code int, reason string, err error) {
	line, err := readLine(r)
	if err != nil {
		return "", 0, "", fmt.Errorf("failed to read status line: %w", err)
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return "", 0, "", fmt.Errorf("malformed status line: %q", line)
	}
	var c int
	if _, err := fmt.Sscanf(parts[1], "%d", &c); err != nil {
		return "", 0, "", fmt.Errorf("malformed status code in %q: %w", line, err)
	}
	reason = ""
	if len(parts) == 3 {
		reason = strings.TrimSpace(parts[2])
	}
	return parts[0], c, reason, nil
}

func readLine(r *bufio.Reader) (string, error) {
	tp := textproto.NewReader(r)
	return tp.ReadLine()
}

// readMIMEHeader reads RFC 7230 headers up to and including the blank
// line that terminates them.
func readMIMEHeader(r *bufio.Reader) (http.Header, error) {
	tp := textproto.NewReader(r)
	mh, err := tp.ReadMIMEHeader()
	if err != nil {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}
	return http.Header(mh), nil
}

// writeRequestLine writes "METHOD target HTTP/1.1\r\n".
func writeRequestLine(w *bufio.Writer, method, target string) error {
	_, err := fmt.Fprintf(w, "%s %s HTTP/1.1\r\n", method, target)
	return err
}

// writeStatusLine writes "HTTP/1.1 code reason\r\n".
func writeStatusLine(w *bufio.Writer, code int, reason string) error {
	_, err := fmt.Fprintf(w, "HTTP/1.1 %d %s\r\n", code, reason)
	return err
}

// writeHeader writes h followed by the blank line terminating the header
// block. It does not flush w.
func writeHeader(w *bufio.Writer, h http.Header) error {
	for k, vs := range h {
		for _, v := range vs {
			if _, err := fmt.Fprintf(w, "%s: %s\r\n", k, v); err != nil {
				return err
			}
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

// headerContainsToken reports whether any comma-separated value of
// h[key] case-insensitively equals token, per RFC 7230's token-list
// convention used by Connection and Upgrade.
func headerContainsToken(h http.Header, key, token string) bool {
	token = strings.ToLower(token)
	for _, v := range h[textproto.CanonicalMIMEHeaderKey(key)] {
		for _, part := range strings.Split(v, ",") {
			if strings.ToLower(strings.TrimSpace(part)) == token {
				return true
			}
		}
	}
	return false
}

// headerTokenHasPrefix returns the first comma-separated value of
// h[key] with the given case-insensitive prefix, or "" if none match.
func headerTokenHasPrefix(h http.Header, key, prefix string) string {
	prefix = strings.ToLower(prefix)
	for _, v := range h[textproto.CanonicalMIMEHeaderKey(key)] {
		for _, part := range strings.Split(v, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if strings.HasPrefix(part, prefix) {
				return part
			}
		}
	}
	return ""
}
