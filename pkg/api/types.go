// Package api holds the wire types and route conventions of the greenhouse
// agent REST API. Both the client and the simulator speak these.
package api

// SwitchState is one switch-controlled device as reported by /switches_state.
//
// PinState is null on the wire until the agent has sampled the pin; that
// decodes to 0, which reads as off.
type SwitchState struct {
	Name         string `json:"name"`
	PinNum       uint32 `json:"pin_num"`
	IsAuto       bool   `json:"is_auto"`
	OverrideAuto bool   `json:"override_auto"`
	PinState     int    `json:"pin_state"`
}

// SwitchesState is the /switches_state response body.
type SwitchesState struct {
	Switches []SwitchState `json:"switches"`
}

// LockState is the client-observed lock state of a switch row.
type LockState int

const (
	// Unlocked means the manual toggle is interactive.
	Unlocked LockState = iota
	// Locked means the switch is under automatic control with no override.
	Locked
)

// String returns a human-readable lock state.
func (s LockState) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case Locked:
		return "locked"
	default:
		return "unknown"
	}
}

// IsOn reports whether the pin is driven. Any value >= 1 counts as on.
func (s SwitchState) IsOn() bool {
	return s.PinState >= 1
}

// Locked reports whether automatic control owns the switch.
func (s SwitchState) Locked() bool {
	return s.IsAuto && !s.OverrideAuto
}

// ToggleEnabled reports whether the manual on/off control is interactive.
func (s SwitchState) ToggleEnabled() bool {
	return !s.IsAuto || s.OverrideAuto
}

// ShowOverride reports whether an override control applies to this switch.
func (s SwitchState) ShowOverride() bool {
	return s.IsAuto
}

// State returns the row's lock state.
func (s SwitchState) State() LockState {
	if s.Locked() {
		return Locked
	}
	return Unlocked
}

// WithPinState returns a copy with pin_state set to 1 or 0.
func (s SwitchState) WithPinState(on bool) SwitchState {
	s.PinState = 0
	if on {
		s.PinState = 1
	}
	return s
}

// WithOverride returns a copy with override_auto set.
func (s SwitchState) WithOverride(on bool) SwitchState {
	s.OverrideAuto = on
	return s
}

// ByName returns the first switch with the given name.
func (s SwitchesState) ByName(name string) (SwitchState, bool) {
	for _, sw := range s.Switches {
		if sw.Name == name {
			return sw, true
		}
	}
	return SwitchState{}, false
}

// ByPin returns the switch on the given pin.
func (s SwitchesState) ByPin(pin uint32) (SwitchState, bool) {
	for _, sw := range s.Switches {
		if sw.PinNum == pin {
			return sw, true
		}
	}
	return SwitchState{}, false
}
