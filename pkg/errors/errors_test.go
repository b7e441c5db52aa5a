package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIs_Families(t *testing.T) {
	cfgErr := NewConfig("models.Validate", CodeThresholdOrder, "bad thresholds", "fix them")
	dataErr := NewDataAccess("connector.Query", CodeConnectorQuery, "crm", "query failed", nil)

	if !Is(cfgErr, ErrConfig) {
		t.Fatalf("expected config family match")
	}
	if Is(cfgErr, ErrDataAccess) {
		t.Fatalf("config error must not match the data-access family")
	}
	if !Is(dataErr, ErrDataAccess) {
		t.Fatalf("expected data-access family match")
	}

	// Wrapped errors still match their family.
	wrapped := fmt.Errorf("run aborted: %w", cfgErr)
	if !Is(wrapped, ErrConfig) {
		t.Fatalf("expected family match through wrapping")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDataAccess("connector.Connect", CodeConnectorConnect, "erp", "failed to open", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected the cause to be reachable via Unwrap")
	}
}

func TestWithTrace(t *testing.T) {
	err := NewConfig("op", CodeInvalidRuleSet, "msg", "")
	WithTrace(err, "trace-9")
	var c *ConfigError
	if !errors.As(err, &c) || c.TraceID != "trace-9" {
		t.Fatalf("expected trace id stamped, got %+v", c)
	}

	plain := errors.New("plain")
	if got := WithTrace(plain, "trace-9"); got != plain {
		t.Fatalf("plain errors must pass through unchanged")
	}
}

func TestActionableMessage(t *testing.T) {
	err := NewConfig("op", CodeThresholdOrder, "review above match", "swap the thresholds")
	msg := ActionableMessage(err)
	if !strings.Contains(msg, CodeThresholdOrder) || !strings.Contains(msg, "swap the thresholds") {
		t.Fatalf("unexpected message: %q", msg)
	}

	if got := ActionableMessage(errors.New("boom")); got != "boom" {
		t.Fatalf("unexpected message for plain error: %q", got)
	}
	if got := ActionableMessage(nil); got != "" {
		t.Fatalf("nil error must render empty, got %q", got)
	}
}

func TestErrorStrings(t *testing.T) {
	err := NewDataAccess("connector.Query", CodeConnectorQuery, "crm", "query failed", errors.New("timeout"))
	if !strings.Contains(err.Error(), "crm") || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("unexpected error string: %q", err.Error())
	}
}
