package simulator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/greenhouse-agent/gha/internal/config"
	"github.com/greenhouse-agent/gha/pkg/api"
)

// PinError is a rejected pin request. Its text is what the agent puts in the
// 400 response body.
type PinError struct {
	Pin   uint32
	Value string // set for InvalidPinValue
}

func (e *PinError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("InvalidPinValue %d: %s must be 0 or 1", e.Pin, e.Value)
	}
	return fmt.Sprintf("InvalidPin: pin %d not found", e.Pin)
}

// SwitchBank holds switch state keyed by GPIO pin.
type SwitchBank struct {
	mu       sync.RWMutex
	switches map[uint32]*switchEntry
}

type switchEntry struct {
	state api.SwitchState
	known bool // false until the first write, reported as a null pin_state
}

// NewSwitchBank builds a bank from configured switches. Every switch starts
// off, with no manual override and an unknown pin state.
func NewSwitchBank(devices []config.SwitchConfig) *SwitchBank {
	b := &SwitchBank{switches: make(map[uint32]*switchEntry, len(devices))}
	for _, d := range devices {
		b.switches[d.GPIOPin] = &switchEntry{
			state: api.SwitchState{
				Name:   d.Name,
				PinNum: d.GPIOPin,
				IsAuto: d.Auto,
			},
		}
	}
	return b
}

// UpdatePinState sets a pin high (1) or low (0).
func (b *SwitchBank) UpdatePinState(pin uint32, value int) (api.SwitchState, error) {
	if value != 0 && value != 1 {
		return api.SwitchState{}, &PinError{Pin: pin, Value: fmt.Sprint(value)}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.switches[pin]
	if !ok {
		return api.SwitchState{}, &PinError{Pin: pin}
	}
	entry.state.PinState = value
	entry.known = true
	return entry.state, nil
}

// UpdateOverrideAuto sets whether manual control overrides automatic control.
func (b *SwitchBank) UpdateOverrideAuto(pin uint32, value bool) (api.SwitchState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.switches[pin]
	if !ok {
		return api.SwitchState{}, &PinError{Pin: pin}
	}
	entry.state.OverrideAuto = value
	return entry.state, nil
}

// Snapshot returns every switch ordered by pin number.
func (b *SwitchBank) Snapshot() []api.SwitchState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]api.SwitchState, 0, len(b.switches))
	for _, entry := range b.switches {
		out = append(out, entry.state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PinNum < out[j].PinNum })
	return out
}

// wireSwitch is the agent's JSON shape, where pin_state is null until first written.
type wireSwitch struct {
	Name         string `json:"name"`
	PinNum       uint32 `json:"pin_num"`
	IsAuto       bool   `json:"is_auto"`
	OverrideAuto bool   `json:"override_auto"`
	PinState     *int   `json:"pin_state"`
}

type wireSwitches struct {
	Switches []wireSwitch `json:"switches"`
}

// wire renders the bank the way the agent does.
func (b *SwitchBank) wire() wireSwitches {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := wireSwitches{Switches: make([]wireSwitch, 0, len(b.switches))}
	for _, entry := range b.switches {
		ws := wireSwitch{
			Name:         entry.state.Name,
			PinNum:       entry.state.PinNum,
			IsAuto:       entry.state.IsAuto,
			OverrideAuto: entry.state.OverrideAuto,
		}
		if entry.known {
			v := entry.state.PinState
			ws.PinState = &v
		}
		out.Switches = append(out.Switches, ws)
	}
	sort.Slice(out.Switches, func(i, j int) bool { return out.Switches[i].PinNum < out.Switches[j].PinNum })
	return out
}
