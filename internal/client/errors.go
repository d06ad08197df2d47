package client

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/greenhouse-agent/gha/internal/errors"
	"github.com/greenhouse-agent/gha/pkg/api"
)

// StatusError is a non-2xx answer from the agent. Body is kept verbatim.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, body)
}

// Temporary reports whether retrying could help.
func (e *StatusError) Temporary() bool {
	return e.Status >= 500 || e.Status == 429
}

// mutationError returns rejected when the agent answered with an error
// status, and a NO_SERVER error when it was never reached.
func mutationError(path string, cause error, rejected *errors.Error) *errors.Error {
	var se *StatusError
	if stderrors.As(cause, &se) {
		return rejected
	}
	return errors.NewNoServer(cause, path)
}

func pinUpdateError(sw api.SwitchState, cause error) *errors.Error {
	return errors.WrapWithCode(cause, errors.ErrPinUpdate,
		fmt.Sprintf("Failed to turn %s %s", switchLabel(sw), onOff(sw.IsOn())),
		"The switch list has been refreshed from the agent. Check the agent's logs if this keeps happening.")
}

func pinOverrideError(sw api.SwitchState, cause error) *errors.Error {
	action := "release"
	if sw.OverrideAuto {
		action = "take"
	}
	return errors.WrapWithCode(cause, errors.ErrPinOverride,
		fmt.Sprintf("Failed to %s manual control of %s", action, switchLabel(sw)),
		"The switch list has been refreshed from the agent. Only switches under auto control can be overridden.")
}

func switchLabel(sw api.SwitchState) string {
	if sw.Name == "" {
		return fmt.Sprintf("pin %d", sw.PinNum)
	}
	return fmt.Sprintf("%s (pin %d)", sw.Name, sw.PinNum)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
