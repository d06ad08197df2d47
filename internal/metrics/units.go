package metrics

import "strings"

// Unit returns the display unit implied by a metric name's suffix.
func Unit(name string) string {
	switch {
	case strings.HasSuffix(name, "f"):
		return "°F"
	case strings.HasSuffix(name, "c"):
		return "°C"
	case strings.HasSuffix(name, "h"):
		return "%RH"
	default:
		return ""
	}
}

// Label strips the unit suffix so "outside_f" displays as "outside".
func Label(name string) string {
	for _, suffix := range []string{"_f", "_c", "_h"} {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}
