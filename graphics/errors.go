package graphics

import "fmt"

// AllocationError reports that a device could not provide storage for a
// texture, framebuffer, program or buffer.
type AllocationError struct {
	What   string
	Width  int
	Height int
	Err    error
}

func (e *AllocationError) Error() string {
	msg := "failed to allocate " + e.What
	if e.Width != 0 || e.Height != 0 {
		msg += fmt.Sprintf(" (%dx%d)", e.Width, e.Height)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AllocationError) Unwrap() error { return e.Err }

// ConfigurationError reports an effect that cannot be drawn as configured:
// an unset uniform, an unbound texture slot or an invalid chain edit.
// Index is the effect's position in its chain, or -1 outside a chain.
type ConfigurationError struct {
	Index  int
	Effect string
	Slot   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("effect %q", e.Effect)
	if e.Index >= 0 {
		msg = fmt.Sprintf("effect %d (%s)", e.Index, e.Effect)
	}
	if e.Slot != "" {
		msg += fmt.Sprintf(" slot %q", e.Slot)
	}
	return msg + ": " + e.Reason
}

// NotInitializedError reports a render attempted before a required
// collaborator was supplied.
type NotInitializedError struct {
	What string
}

func (e *NotInitializedError) Error() string {
	return e.What + " not set"
}
