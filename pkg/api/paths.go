package api

import "fmt"

// Routes served by the greenhouse agent.
const (
	PathSwitchesState = "/switches_state"
	PathMetrics       = "/metrics"
	PathHealth        = "/health"

	// PathPinOutputPrefix is followed by /{pin_num}/{0|1}.
	PathPinOutputPrefix = "/pin/output"
	// PathOverrideAutoPrefix is followed by /{pin_num}/{0|1}.
	PathOverrideAutoPrefix = "/pin/override_auto"
)

// BoolParam encodes a flag the way the agent expects it in a path segment.
func BoolParam(on bool) string {
	if on {
		return "1"
	}
	return "0"
}

// PinOutputPath returns the path that drives a pin on or off.
func PinOutputPath(pin uint32, on bool) string {
	return fmt.Sprintf("%s/%d/%s", PathPinOutputPrefix, pin, BoolParam(on))
}

// OverrideAutoPath returns the path that sets a switch's override flag.
func OverrideAutoPath(pin uint32, on bool) string {
	return fmt.Sprintf("%s/%d/%s", PathOverrideAutoPrefix, pin, BoolParam(on))
}
