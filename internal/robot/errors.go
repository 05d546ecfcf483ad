package robot

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMode indicates a mode name or value outside SLOW/MEDIUM/FAST.
	ErrUnknownMode = errors.New("robot: unknown mode")

	// ErrUnknownController indicates a controller name other than sensor or gyro.
	ErrUnknownController = errors.New("robot: unknown controller")

	// ErrInvalidProfile indicates a mode profile that cannot drive the motors.
	ErrInvalidProfile = errors.New("robot: invalid mode profile")

	// ErrInvalidConfig indicates a tuning value outside its valid range.
	ErrInvalidConfig = errors.New("robot: invalid configuration")

	// ErrMissingDevice indicates a required collaborator was not provided.
	ErrMissingDevice = errors.New("robot: required device not provided")
)

// ProfileError names the mode and field of a rejected profile.
type ProfileError struct {
	Mode    Mode
	Field   string
	Wrapped error
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("%s profile: %s: %v", e.Mode, e.Field, e.Wrapped)
}

func (e *ProfileError) Unwrap() error {
	return e.Wrapped
}
