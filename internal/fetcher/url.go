package fetcher

import (
	"net/url"
	"strings"
)

// BuildURL joins base and path and appends the encoded query.
func BuildURL(base, path string, params url.Values) string {
	u := strings.TrimRight(base, "/")
	if path != "" {
		u += "/" + strings.TrimLeft(path, "/")
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}
