package forwarder

import (
	"bytes"
	"encoding/json"
	"strings"
)

// streamingPaths default to streaming responses unless the request body
// explicitly overrides with "stream": false.
var streamingPaths = map[string]bool{
	"api/generate": true,
	"api/chat":     true,
}

type modelRequestBody struct {
	Model  string `json:"model"`
	Stream *bool  `json:"stream"`
}

// resolveModelAndStream parses the target model and stream flag out of
// the request body (preferred) or, failing that, the path's last
// segment. The body is only read, never modified, so the caller can
// replay the same bytes to the backend.
func resolveModelAndStream(path string, body []byte) (name, tag string, stream bool, err error) {
	stream = streamingPaths[path]

	var parsed modelRequestBody
	if len(bytes.TrimSpace(body)) > 0 {
		if jsonErr := json.Unmarshal(body, &parsed); jsonErr == nil {
			if parsed.Stream != nil {
				stream = *parsed.Stream
			}
			if parsed.Model != "" {
				name, tag, err = splitNameTag(parsed.Model)
				return name, tag, stream, err
			}
		}
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	name, tag, err = splitNameTag(last)
	return name, tag, stream, err
}

// splitNameTag requires the strict "name:tag" form the router indexes
// on; a bare name with no tag is rejected rather than defaulting a tag,
// since there's no implied default in this system's catalog.
func splitNameTag(raw string) (name, tag string, err error) {
	idx := strings.LastIndex(raw, ":")
	if idx <= 0 || idx == len(raw)-1 {
		return "", "", ErrBadModel
	}
	return raw[:idx], raw[idx+1:], nil
}
