package catalog

import "fmt"

// IntegrityError reports a malformed catalog table
type IntegrityError struct {
	Table  string
	Reason string
}

func (err *IntegrityError) Error() string {
	return fmt.Sprintf("catalog integrity: %s: %s", err.Table, err.Reason)
}

// ConfigurationError reports an invalid sampling or estimation setting
type ConfigurationError struct {
	Parameter string
	Reason    string
}

func (err *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", err.Parameter, err.Reason)
}
