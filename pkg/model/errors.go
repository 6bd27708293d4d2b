package model

import (
	"fmt"

	"github.com/limaJavier/surgery-scheduling/pkg/catalog"
)

// ConfigurationError reports invalid distribution parameters or facility dimensions. It is the catalog's error so
// both packages report configuration problems through a single type.
type ConfigurationError = catalog.ConfigurationError

// IntegrityError reports instance data the model cannot be formulated from
type IntegrityError struct {
	Reason string
}

func (err *IntegrityError) Error() string {
	return fmt.Sprintf("model integrity: %s", err.Reason)
}

// DecodeError reports solver values that cannot be mapped back into a schedule
type DecodeError struct {
	Variable string
	Value    float64
	Reason   string
}

func (err *DecodeError) Error() string {
	if err.Variable == "" {
		return fmt.Sprintf("cannot decode solution: %s", err.Reason)
	}
	return fmt.Sprintf("cannot decode solution: %s = %v: %s", err.Variable, err.Value, err.Reason)
}
