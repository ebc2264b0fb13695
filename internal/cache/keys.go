package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// defaultPorts are dropped from keys so host:443 and host share entries
var defaultPorts = map[string]string{"http": "80", "https": "443"}

// GenerateKey returns the hex SHA256 of the canonical form of rawURL.
// Asset variants differ only by query, so the query stays part of the key
// with its parameters sorted.
func GenerateKey(rawURL string) string {
	sum := sha256.Sum256([]byte(normalizeForKey(rawURL)))
	return hex.EncodeToString(sum[:])
}

// normalizeForKey canonicalizes rawURL. Unparseable input is returned as is.
func normalizeForKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		// protocol-relative references are common in exported markup
		scheme = "https"
	}
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && port != defaultPorts[scheme] {
		host += ":" + port
	}

	p := "/"
	if u.Path != "" {
		p = path.Clean(u.Path)
	}

	canonical := url.URL{Scheme: scheme, Host: host, Path: p}
	if u.RawQuery != "" {
		canonical.RawQuery = u.Query().Encode()
	}
	return canonical.String()
}
