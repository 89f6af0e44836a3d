package services

import "net/url"

// IsValidURL reports whether candidate is an absolute http or https URL with a host.
func IsValidURL(candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
