package fairness

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks caller input the engine refuses to compute with.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidDropColumn indicates a drop column outside [0, Rows].
var ErrInvalidDropColumn = fmt.Errorf("%w: drop column must be between 0 and %d", ErrInvalidArgument, Rows)

// ErrInvalidSeed indicates a seed that does not start with a hexadecimal digit.
var ErrInvalidSeed = fmt.Errorf("%w: seed must start with a hexadecimal digit", ErrInvalidArgument)

// ErrEmptyClientSeed indicates a play request without a client seed.
var ErrEmptyClientSeed = fmt.Errorf("%w: client seed is required", ErrInvalidArgument)

// ErrInvalidState indicates a round transition that skips or repeats a step.
var ErrInvalidState = errors.New("invalid round state")

// ErrInvariantViolation is a defect in the engine itself, never a user error.
// Callers must surface it as an internal failure and must not advance round state.
var ErrInvariantViolation = errors.New("fairness invariant violated")
