package auth

import "net/http"

// ExtractAPIKey pulls the caller's API key from whichever of the three
// supported locations carries it, header forms taking priority over the
// query string. Framework agnostic (plain *http.Request) so both
// pkg/forwarder and pkg/api can call it without an Echo dependency.
func ExtractAPIKey(r *http.Request) (string, bool) {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key, true
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
			return auth[len(prefix):], true
		}
	}
	if key := r.URL.Query().Get("api_key"); key != "" {
		return key, true
	}
	return "", false
}
