package serialmux

import "strings"

const (
	EventTypeSpeed   = "speed"
	EventTypeConfig  = "config"
	EventTypeUnknown = "unknown"
)

// ClassifyPayload inspects a line from the radar and returns a coarse event
// type. Speed reports are either JSON objects carrying a "speed" key or bare
// CSV; any other JSON object is a configuration response.
func ClassifyPayload(payload string) string {
	p := strings.TrimSpace(payload)
	switch {
	case p == "":
		return EventTypeUnknown
	case strings.HasPrefix(p, "{"):
		if strings.Contains(p, `"speed"`) {
			return EventTypeSpeed
		}
		return EventTypeConfig
	case strings.ContainsAny(p[:1], "-+.0123456789"):
		return EventTypeSpeed
	default:
		return EventTypeUnknown
	}
}
