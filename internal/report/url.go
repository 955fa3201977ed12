package report

import "strings"

// JoinPublicURL joins a public base URL and a relative path, tolerating the
// slash on either side. Callers pass safe filenames; nothing is encoded.
func JoinPublicURL(base, path string) string {
	base = strings.TrimSpace(base)
	path = strings.TrimSpace(path)
	if base == "" {
		return path
	}
	if path == "" {
		return base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimLeft(path, "/")
}
