// Package errors provides structured error types used across the application.
// We prefer these over raw fmt.Errorf strings to enable reliable checks with
// errors.Is / errors.As and to render operator-facing messages uniformly
// across the connector and reconciliation layers.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Machine-readable error codes. Stable; callers and log pipelines key off
// these, so add new ones instead of renaming.
const (
	CodeInvalidRuleSet    = "config.invalid_rule_set"
	CodeThresholdOrder    = "config.threshold_order"
	CodeUnknownField      = "config.unknown_field"
	CodeEmptyComposite    = "config.empty_composite"
	CodeConnectorQuery    = "data.connector_query"
	CodeConnectorConnect  = "data.connector_connect"
	CodeConnectorNotFound = "data.connector_not_found"
)

// ConfigError indicates an invalid rule set, threshold ordering or similar
// run-configuration problem. Fatal to a run; raised before any comparison
// or I/O begins.
type ConfigError struct {
	Op      string // where it happened (package.Function)
	Code    string // machine-readable code, see constants above
	Msg     string // human friendly message (no record contents)
	Hint    string // remediation suggestion, may be empty
	TraceID string // set by the layer that owns the trace context
	Err     error  // underlying cause (optional)
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("config: %s: %s", e.Op, e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func NewConfig(op, code, msg, hint string) error {
	return &ConfigError{Op: op, Code: code, Msg: msg, Hint: hint}
}

// DataAccessError represents a connector failing to supply or accept a
// record set. The core never retries these; retry policy belongs to the
// connector implementation.
type DataAccessError struct {
	Op        string
	Code      string
	Connector string // connector name, e.g. "crm" / "erp"
	Msg       string
	Hint      string
	TraceID   string
	Err       error
}

func (e *DataAccessError) Error() string {
	if e == nil {
		return "<nil>"
	}
	c := e.Connector
	if c == "" {
		c = "connector"
	}
	if e.Err != nil {
		return fmt.Sprintf("data: %s: %s: %s: %v", c, e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("data: %s: %s: %s", c, e.Op, e.Msg)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

func NewDataAccess(op, code, connector, msg string, err error) error {
	return &DataAccessError{Op: op, Code: code, Connector: connector, Msg: msg, Err: err}
}

// Kind sentinels for errors.Is style checks without type assertions.
var (
	ErrConfig     = &ConfigError{}
	ErrDataAccess = &DataAccessError{}
)

// Is reports whether err belongs to the same error family as target.
// Delegates to errors.As with the zero-value pointer of each type.
func Is(err, target error) bool {
	if err == nil || target == nil {
		return errors.Is(err, target)
	}
	switch target.(type) {
	case *ConfigError:
		var c *ConfigError
		return errors.As(err, &c)
	case *DataAccessError:
		var d *DataAccessError
		return errors.As(err, &d)
	default:
		return errors.Is(err, target)
	}
}

// WithTrace stamps the trace id onto a structured error so operators can
// correlate failures with the invocation that raised them. Non-structured
// errors pass through unchanged.
func WithTrace(err error, traceID string) error {
	var c *ConfigError
	if errors.As(err, &c) {
		c.TraceID = traceID
		return err
	}
	var d *DataAccessError
	if errors.As(err, &d) {
		d.TraceID = traceID
		return err
	}
	return err
}

// ActionableMessage renders any error in the shared operator-facing shape:
// code, message and remediation hint when one is known. Works uniformly
// over both error families so callers report them the same way.
func ActionableMessage(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	var c *ConfigError
	var d *DataAccessError
	switch {
	case errors.As(err, &c):
		fmt.Fprintf(&b, "[%s] %s", c.Code, c.Msg)
		if c.Hint != "" {
			fmt.Fprintf(&b, " (hint: %s)", c.Hint)
		}
	case errors.As(err, &d):
		fmt.Fprintf(&b, "[%s] %s", d.Code, d.Msg)
		if d.Hint != "" {
			fmt.Fprintf(&b, " (hint: %s)", d.Hint)
		}
	default:
		b.WriteString(err.Error())
	}
	return b.String()
}
