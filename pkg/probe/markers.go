package probe

import "strings"

// DefaultFakeMarkers is the canonical substring list that flags a backend
// as serving a decoy/placeholder model rather than a real one. Overridable
// by callers (e.g. from SystemSetting) so adding a marker needs no schema
// change.
var DefaultFakeMarkers = []string{
	"fake-ollama",
	"服务器繁忙",
}

func containsAnyMarker(text string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(text, m) {
			return true
		}
	}
	return false
}
